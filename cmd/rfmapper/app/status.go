package app

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/gosuri/uitable"
	"github.com/spf13/cobra"

	"github.com/autopeer-io/rfmapper/internal/mapper"
)

type statusOptions struct {
	server  string
	timeout time.Duration
}

func newStatusCommand() *cobra.Command {
	o := &statusOptions{
		server:  "http://127.0.0.1:8080",
		timeout: 5 * time.Second,
	}

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Print the status of a running mapper",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, cancel := context.WithTimeout(cmd.Context(), o.timeout)
			defer cancel()

			st, err := fetchStatus(ctx, http.DefaultClient, o.server)
			if err != nil {
				return err
			}
			printStatus(cmd.OutOrStdout(), st)
			return nil
		},
	}

	cmd.Flags().StringVar(&o.server, "server", o.server, "Base URL of the mapper status server.")
	cmd.Flags().DurationVar(&o.timeout, "timeout", o.timeout, "Request timeout.")
	return cmd
}

func fetchStatus(ctx context.Context, client *http.Client, server string) (*mapper.Status, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, strings.TrimRight(server, "/")+"/status", nil)
	if err != nil {
		return nil, err
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to reach %s: %w", server, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("status request failed: %s: %s", resp.Status, strings.TrimSpace(string(body)))
	}

	st := &mapper.Status{}
	if err := json.NewDecoder(resp.Body).Decode(st); err != nil {
		return nil, fmt.Errorf("failed to decode status: %w", err)
	}
	return st, nil
}

func printStatus(w io.Writer, st *mapper.Status) {
	table := uitable.New()
	table.MaxColWidth = 80
	table.Wrap = true

	lastSubmit := "never"
	if !st.LastSubmitAt.IsZero() {
		lastSubmit = st.LastSubmitAt.Format(time.RFC3339)
	}

	table.AddRow("NAME:", st.Name)
	table.AddRow("MACHINE ID:", st.MachineID)
	table.AddRow("PHASE:", st.Phase)
	table.AddRow("RUNNING:", st.Running)
	table.AddRow("POSITION:", fmt.Sprintf("%.7f, %.7f, %.2f (available: %t)", st.PositionLat, st.PositionLon, st.PositionAlt, st.PositionAvailable))
	table.AddRow("CORRECTION:", fmt.Sprintf("%.7f, %.7f (available: %t)", st.CorrectionLat, st.CorrectionLon, st.CorrectionAvailable))
	table.AddRow("ODOMETRY:", fmt.Sprintf("%.3f, %.3f", st.OdomX, st.OdomY))
	table.AddRow("PAYLOAD INDEX:", st.PayloadIndex)
	table.AddRow("PENDING SCANS:", st.ScanIndex-st.ScanLastSentIndex)
	table.AddRow("TICKS:", st.Ticks)
	table.AddRow("FAILURES:", st.Failures)
	table.AddRow("LAST SUBMIT:", lastSubmit)
	if st.LastError != "" {
		table.AddRow("LAST ERROR:", st.LastError)
	}

	fmt.Fprintln(w, table)
}
