package options

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	genericoptions "github.com/autopeer-io/rfmapper/pkg/options"
)

func TestDefaultsAreValid(t *testing.T) {
	o := NewMapperOptions()
	require.NoError(t, o.Complete())
	assert.NoError(t, o.Validate())
	assert.Equal(t, genericoptions.DefaultMapperName, o.Name)
}

func TestFlagsAreGroupedBySection(t *testing.T) {
	fss := NewMapperOptions().Flags()
	assert.Equal(t, []string{"Mapper", "Sources", "Submit", "MQTT", "HTTP", "gRPC", "Log"}, fss.Order)

	assert.NotNil(t, fss.FlagSet("Mapper").Lookup("machine-id"))
	assert.NotNil(t, fss.FlagSet("Mapper").Lookup("network-interface"))
	assert.NotNil(t, fss.FlagSet("Submit").Lookup("submit.endpoint"))
	assert.NotNil(t, fss.FlagSet("Log").Lookup("log.level"))
}

func TestFlagsUpdateOptions(t *testing.T) {
	o := NewMapperOptions()
	fss := o.Flags()
	fs := fss.FlagSet("Mapper")
	require.NoError(t, fs.Parse([]string{"--machine-id=robot-001", "--interval=250ms"}))

	cfg, err := o.Config()
	require.NoError(t, err)
	assert.Equal(t, "robot-001", cfg.MapperOptions.MachineID)
	assert.Equal(t, 250*time.Millisecond, cfg.MapperOptions.Interval)
}

func TestValidateAggregatesErrors(t *testing.T) {
	o := NewMapperOptions()
	o.Interval = 0
	o.Log.Format = "xml"

	err := o.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "interval")
	assert.Contains(t, err.Error(), "log.format")
}

func TestConfigCopiesMapperOptions(t *testing.T) {
	o := NewMapperOptions()
	cfg, err := o.Config()
	require.NoError(t, err)

	cfg.MapperOptions.MachineID = "changed"
	assert.Empty(t, o.MachineID)

	sc := o.ServerConfig()
	assert.Same(t, o.HTTP, sc.HttpOptions)
	assert.Same(t, o.GRPC, sc.GrpcOptions)
}
