package mapper

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"sync/atomic"
	"time"

	"github.com/looplab/fsm"
	utilerrors "k8s.io/apimachinery/pkg/util/errors"
	"k8s.io/utils/clock"

	"github.com/autopeer-io/rfmapper/internal/mapper/core"
	"github.com/autopeer-io/rfmapper/internal/pkg/metrics"
	utilfsm "github.com/autopeer-io/rfmapper/internal/pkg/util/fsm"
	"github.com/autopeer-io/rfmapper/pkg/log"
)

// Lifecycle phases.
const (
	PhaseNotStarted = "NotStarted"
	PhaseRunning    = "Running"
	PhaseStopping   = "Stopping"
	PhaseStopped    = "Stopped"
)

const (
	eventStart  = "start"
	eventStop   = "stop"
	eventFinish = "finish"
)

var (
	ErrAlreadyStarted = errors.New("mapper already started")
	ErrNotStarted     = errors.New("mapper not started")
)

// Mapper aggregates the three telemetry sources into one payload per tick
// and hands it to the submitter. It runs once: a stopped mapper cannot be
// started again.
type Mapper struct {
	settings  settings
	clock     clock.Clock
	logger    log.Logger
	factories Factories

	lifecycle sync.Mutex
	machine   *fsm.FSM

	running atomic.Bool
	stopCh  chan struct{}
	done    chan struct{}

	// ctx outlives Start and is handed to the collaborators; Stop cancels it.
	ctx    context.Context
	cancel context.CancelFunc

	// Everything below is owned by the loop goroutine once started.
	state        State
	ticks        uint64
	failures     uint64
	lastErr      string
	lastSubmitAt time.Time

	position   core.Source
	correction core.Source
	odometry   core.Source
	submitter  core.Submitter
	closers    []io.Closer

	status atomic.Pointer[Status]
}

func newMapper(s settings, clk clock.Clock, logger log.Logger, f Factories) *Mapper {
	m := &Mapper{
		settings:  s,
		clock:     clk,
		logger:    logger.WithValues("name", s.name),
		factories: f,
		stopCh:    make(chan struct{}),
		done:      make(chan struct{}),
	}

	m.machine = fsm.NewFSM(
		PhaseNotStarted,
		fsm.Events{
			{Name: eventStart, Src: []string{PhaseNotStarted}, Dst: PhaseRunning},
			{Name: eventStop, Src: []string{PhaseRunning}, Dst: PhaseStopping},
			{Name: eventFinish, Src: []string{PhaseStopping}, Dst: PhaseStopped},
		},
		fsm.Callbacks{
			"before_" + eventStart: utilfsm.WrapEvent(func(_ context.Context, e *fsm.Event) error {
				// The event context is cancelled once the transition returns.
				return m.open(m.ctx, e)
			}),
			"enter_state": func(_ context.Context, e *fsm.Event) {
				m.logger.Debug("Lifecycle transition", "from", e.Src, "to", e.Dst)
			},
		},
	)

	m.logger.Info("Mapper configured",
		"machineID", s.resolvedMachineID(),
		"networkInterface", s.networkInterface,
		"credentialSet", s.credential != "",
		"interval", s.interval,
	)
	m.publish()
	return m
}

// Start builds the sources and the submitter, then runs the loop on its own
// goroutine. It returns without waiting for the first tick.
func (m *Mapper) Start(ctx context.Context) error {
	m.lifecycle.Lock()
	defer m.lifecycle.Unlock()

	if m.machine.Current() != PhaseNotStarted {
		return ErrAlreadyStarted
	}

	m.ctx, m.cancel = context.WithCancel(context.WithoutCancel(ctx))
	if err := m.machine.Event(ctx, eventStart); err != nil {
		m.cancel()
		var canceled fsm.CanceledError
		if errors.As(err, &canceled) && canceled.Err != nil {
			return canceled.Err
		}
		return err
	}

	m.state.Running = true
	m.running.Store(true)
	m.publish()

	// Submissions are not cancelled by the caller's context; Stop ends the loop.
	go m.loop(m.ctx)

	m.logger.Info("Mapper started", "machineID", m.settings.resolvedMachineID())
	return nil
}

// Stop asks the loop to exit, waits the grace delay and then for the worker
// to finish its in-flight tick. Stopping a stopped mapper is a no-op.
func (m *Mapper) Stop() error {
	m.lifecycle.Lock()
	defer m.lifecycle.Unlock()

	switch m.machine.Current() {
	case PhaseStopped:
		return nil
	case PhaseNotStarted:
		return ErrNotStarted
	}

	ctx := context.Background()
	if err := m.machine.Event(ctx, eventStop); err != nil {
		return err
	}

	m.running.Store(false)
	close(m.stopCh)
	m.clock.Sleep(m.settings.stopGrace)
	<-m.done
	m.cancel()

	err := m.closeAll()
	if ferr := utilfsm.Fire(ctx, m.machine, eventFinish); ferr != nil {
		err = utilerrors.NewAggregate([]error{err, ferr})
	}
	m.publish()

	m.logger.Info("Mapper stopped", "payloadIdx", m.state.PayloadIndex, "ticks", m.ticks)
	return err
}

// Run starts the mapper, blocks until ctx is done and stops it.
func (m *Mapper) Run(ctx context.Context) error {
	if err := m.Start(ctx); err != nil {
		return err
	}
	<-ctx.Done()
	return m.Stop()
}

// Status returns the snapshot published after the latest tick.
func (m *Mapper) Status() Status {
	return *m.status.Load()
}

// Running reports whether the loop has been started and not asked to stop.
func (m *Mapper) Running() bool {
	return m.running.Load()
}

// open builds the collaborators. It runs as the before-start callback so a
// failure cancels the transition and leaves the mapper NotStarted.
func (m *Mapper) open(ctx context.Context, _ *fsm.Event) error {
	m.state = State{}

	sources := []struct {
		kind    core.SourceKind
		factory SourceFactory
		dst     *core.Source
	}{
		{core.SourcePosition, m.factories.Position, &m.position},
		{core.SourceCorrection, m.factories.Correction, &m.correction},
		{core.SourceOdometry, m.factories.Odometry, &m.odometry},
	}

	for _, s := range sources {
		if s.factory == nil {
			m.logger.Warn("Telemetry source not configured", "source", s.kind)
			continue
		}
		src, err := s.factory(ctx)
		if err != nil {
			return m.abortOpen(fmt.Errorf("%s source: %w", s.kind, err), s.kind)
		}
		if src == nil {
			m.logger.Warn("Telemetry source disabled", "source", s.kind)
			continue
		}
		*s.dst = src
		m.track(src)
		m.logger.Info("Telemetry source ready", "source", s.kind, "type", fmt.Sprintf("%T", src))
	}

	if m.factories.Submitter == nil {
		return m.abortOpen(errors.New("no submitter configured"), "")
	}
	sub, err := m.factories.Submitter(ctx)
	if err != nil {
		return m.abortOpen(fmt.Errorf("submitter: %w", err), "")
	}
	if sub == nil {
		return m.abortOpen(errors.New("submitter factory returned nil"), "")
	}
	m.submitter = sub
	m.track(sub)
	m.logger.Info("Submitter ready", "type", fmt.Sprintf("%T", sub))
	return nil
}

func (m *Mapper) abortOpen(err error, kind core.SourceKind) error {
	if errors.Is(err, core.ErrConfigurationMissing) {
		m.logger.Error(err, "Configuration missing, mapper not started", "source", kind)
	} else {
		m.logger.Error(err, "Failed to build mapper collaborators", "source", kind)
	}
	if cerr := m.closeAll(); cerr != nil {
		m.logger.Error(cerr, "Failed to release collaborators")
	}
	m.position, m.correction, m.odometry, m.submitter = nil, nil, nil, nil
	return err
}

func (m *Mapper) track(v any) {
	if c, ok := v.(io.Closer); ok {
		m.closers = append(m.closers, c)
	}
}

func (m *Mapper) closeAll() error {
	var errs []error
	for i := len(m.closers) - 1; i >= 0; i-- {
		if err := m.closers[i].Close(); err != nil {
			errs = append(errs, err)
		}
	}
	m.closers = nil
	if m.factories.Close != nil {
		if err := m.factories.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return utilerrors.NewAggregate(errs)
}

func (m *Mapper) loop(ctx context.Context) {
	defer close(m.done)

	for m.running.Load() {
		m.tick(ctx)
		m.pace()
	}

	m.state.Running = false
	m.publish()
	m.logger.Info("Aggregation loop exited", "payloadIdx", m.state.PayloadIndex)
}

// pace waits one interval or until Stop, whichever comes first.
func (m *Mapper) pace() {
	if !m.running.Load() {
		return
	}
	t := m.clock.NewTimer(m.settings.interval)
	defer t.Stop()

	select {
	case <-t.C():
	case <-m.stopCh:
	}
}

// tick runs one iteration. The payload index advances by exactly one
// whatever the outcome.
func (m *Mapper) tick(ctx context.Context) {
	m.ticks++
	metrics.TicksTotal.Inc()
	idx := m.state.PayloadIndex

	if err := m.collectAndSubmit(ctx); err != nil {
		m.failures++
		m.lastErr = err.Error()
		metrics.SubmissionsTotal.WithLabelValues(metrics.OutcomeFailure).Inc()
		m.logger.Error(err, "Submission failed", "payloadIdx", idx)
	} else {
		m.lastErr = ""
		m.lastSubmitAt = m.clock.Now()
		metrics.SubmissionsTotal.WithLabelValues(metrics.OutcomeSuccess).Inc()
		m.logger.Debug("Payload submitted", "payloadIdx", idx)
	}

	m.state.PayloadIndex = idx + 1
	metrics.PayloadIndex.Set(float64(m.state.PayloadIndex))
	m.publish()
}

func (m *Mapper) collectAndSubmit(ctx context.Context) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("tick panicked: %v", r)
		}
	}()

	gps, dropped := normalizePosition(&m.state, m.position)
	rtk := normalizeCorrection(&m.state, m.correction)
	odom := normalizeOdometry(&m.state, m.odometry)
	observeReading(core.SourcePosition, gps)
	observeReading(core.SourceCorrection, rtk)
	observeReading(core.SourceOdometry, odom)
	if dropped > 0 {
		m.logger.Warn("Scan buffer full, dropped unsent records", "dropped", dropped)
	}

	payload := m.buildPayload(m.state.drainScans())
	m.logger.Debug("Payload built", "payloadIdx", payload.PayloadIdx, "gps", gps, "rtk", rtk, "odom", odom, "scans", len(payload.BLEScan))

	start := m.clock.Now()
	defer func() {
		metrics.SubmissionLatency.Observe(m.clock.Since(start).Seconds())
	}()
	return m.submitter.Submit(ctx, payload)
}

func (m *Mapper) buildPayload(scans []core.Scan) *core.Payload {
	st := &m.state
	return &core.Payload{
		MachineID:  m.settings.resolvedMachineID(),
		PayloadIdx: st.PayloadIndex,
		Timestamp:  m.clock.Now().UnixMilli(),
		GPSLat:     st.PositionLat,
		GPSLon:     st.PositionLon,
		GPSAlt:     st.PositionAlt,
		RTKLat:     st.CorrectionLat,
		RTKLon:     st.CorrectionLon,
		OdomX:      st.OdomX,
		OdomY:      st.OdomY,
		GPSOn:      st.PositionAvailable,
		RTKOn:      st.CorrectionAvailable,
		BLEScan:    scans,
	}
}

// publish stores a fresh snapshot. Callers own the state at that point:
// the loop goroutine while running, the lifecycle methods otherwise.
func (m *Mapper) publish() {
	st := m.state
	m.status.Store(&Status{
		Name:                m.settings.name,
		MachineID:           m.settings.resolvedMachineID(),
		Phase:               m.machine.Current(),
		Running:             st.Running && m.running.Load(),
		PositionLat:         st.PositionLat,
		PositionLon:         st.PositionLon,
		PositionAlt:         st.PositionAlt,
		CorrectionLat:       st.CorrectionLat,
		CorrectionLon:       st.CorrectionLon,
		OdomX:               st.OdomX,
		OdomY:               st.OdomY,
		PositionAvailable:   st.PositionAvailable,
		CorrectionAvailable: st.CorrectionAvailable,
		PayloadIndex:        st.PayloadIndex,
		ScanIndex:           st.ScanIndex,
		ScanLastSentIndex:   st.ScanLastSentIndex,
		Ticks:               m.ticks,
		Failures:            m.failures,
		LastError:           m.lastErr,
		LastSubmitAt:        m.lastSubmitAt,
	})
}

func observeReading(kind core.SourceKind, r core.Reading) {
	v := 0.0
	if r == core.ReadingOK {
		v = 1
	}
	metrics.SourceReady.WithLabelValues(string(kind)).Set(v)
}
