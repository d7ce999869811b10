package monitoring

import (
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"os"
	"strconv"
	"sync"
	"time"

	// Enable profiling
	_ "net/http/pprof"

	"github.com/gorilla/mux"
	"github.com/pkg/browser"
	"github.com/rs/xid"
	"github.com/shirou/gopsutil/process"
	"github.com/syifan/goseth"

	"github.com/reflowlab/reflow/flow"
	"github.com/reflowlab/reflow/reconcile"
)

// Monitor turns a running pipeline into a server and allows external
// inspection and stepping of the pipeline.
type Monitor struct {
	pipeline   *flow.Context
	portNumber int
	openOnWeb  bool

	scopesLock sync.Mutex
	scopes     []*reconcile.Scope

	componentsLock sync.Mutex
	components     map[string]any

	progressBarsLock sync.Mutex
	progressBars     []*ProgressBar
}

// NewMonitor creates a new Monitor.
func NewMonitor() *Monitor {
	return &Monitor{
		components: make(map[string]any),
	}
}

// WithPortNumber sets the port number of the monitor.
func (m *Monitor) WithPortNumber(portNumber int) *Monitor {
	if portNumber < 1000 {
		fmt.Fprintf(os.Stderr,
			"Port number %d is assigned to the monitoring server, "+
				"which is not allowed. Using a random port instead.\n",
			portNumber)
		portNumber = 0
	}

	m.portNumber = portNumber

	return m
}

// WithBrowser makes StartServer open the monitor address in the default
// browser.
func (m *Monitor) WithBrowser() *Monitor {
	m.openOnWeb = true
	return m
}

// RegisterPipeline registers the pipeline context to be monitored.
func (m *Monitor) RegisterPipeline(c *flow.Context) {
	m.pipeline = c
}

// RegisterScope registers a reconciler scope to be monitored.
func (m *Monitor) RegisterScope(s *reconcile.Scope) {
	m.scopesLock.Lock()
	defer m.scopesLock.Unlock()

	m.scopes = append(m.scopes, s)
}

// RegisterComponent registers an arbitrary component whose state can be
// inspected through the component endpoint.
func (m *Monitor) RegisterComponent(name string, c any) {
	m.componentsLock.Lock()
	defer m.componentsLock.Unlock()

	m.components[name] = c
}

// CreateProgressBar creates a new progress bar.
func (m *Monitor) CreateProgressBar(name string, total uint64) *ProgressBar {
	bar := &ProgressBar{
		ID:        xid.New().String(),
		Name:      name,
		StartTime: time.Now(),
		Total:     total,
	}

	m.progressBarsLock.Lock()
	defer m.progressBarsLock.Unlock()

	m.progressBars = append(m.progressBars, bar)

	return bar
}

// CompleteProgressBar removes a bar from the monitor.
func (m *Monitor) CompleteProgressBar(pb *ProgressBar) {
	m.progressBarsLock.Lock()
	defer m.progressBarsLock.Unlock()

	newBars := make([]*ProgressBar, 0, len(m.progressBars))
	for _, b := range m.progressBars {
		if b != pb {
			newBars = append(newBars, b)
		}
	}

	m.progressBars = newBars
}

// TrackScopeProgress creates a progress bar that advances as the scope
// settles mounts, successful or failed.
func (m *Monitor) TrackScopeProgress(
	s *reconcile.Scope,
	total uint64,
) *ProgressBar {
	bar := m.CreateProgressBar(s.Name(), total)
	s.AcceptHook(&mountProgressHook{bar: bar})

	return bar
}

// StartServer starts the monitor as a web server.
func (m *Monitor) StartServer() {
	r := mux.NewRouter()

	r.HandleFunc("/api/pause", m.pausePipeline)
	r.HandleFunc("/api/continue", m.continuePipeline)
	r.HandleFunc("/api/step", m.step)
	r.HandleFunc("/api/tick", m.tick)
	r.HandleFunc("/api/records", m.listRecords)
	r.HandleFunc("/api/queue", m.queueDepths)
	r.HandleFunc("/api/scopes", m.listScopes)
	r.HandleFunc("/api/scope/{name}", m.listScopeElements)
	r.HandleFunc("/api/component/{name}", m.listComponentDetails)
	r.HandleFunc("/api/progress", m.listProgressBars)
	r.HandleFunc("/api/resource", m.listResources)
	http.Handle("/", r)

	actualPort := ":0"
	if m.portNumber > 1000 {
		actualPort = ":" + strconv.Itoa(m.portNumber)
	}

	listener, err := net.Listen("tcp", actualPort)
	dieOnErr(err)

	addr := fmt.Sprintf("http://localhost:%d",
		listener.Addr().(*net.TCPAddr).Port)
	fmt.Fprintf(os.Stderr, "Monitoring pipeline with %s\n", addr)

	go func() {
		err = http.Serve(listener, nil)
		dieOnErr(err)
	}()

	if m.openOnWeb {
		_ = browser.OpenURL(addr)
	}
}

func (m *Monitor) pausePipeline(w http.ResponseWriter, _ *http.Request) {
	m.pipeline.Pause()
	w.WriteHeader(200)
}

func (m *Monitor) continuePipeline(w http.ResponseWriter, _ *http.Request) {
	m.pipeline.Continue()
	w.WriteHeader(200)
}

// step runs one tick of the pipeline. With a live Ticker it waits its turn
// on the tick lock; on a paused pipeline it blocks until continued.
func (m *Monitor) step(w http.ResponseWriter, _ *http.Request) {
	err := m.pipeline.Step()
	if err != nil {
		w.WriteHeader(500)
		fmt.Fprintf(w, "Error: %s", err)

		return
	}

	m.tick(w, nil)
}

func (m *Monitor) tick(w http.ResponseWriter, _ *http.Request) {
	m.pipeline.Pause()
	defer m.pipeline.Continue()

	fmt.Fprintf(w, "{\"tick\":%d}", m.pipeline.TickCount())
}

type recordRsp struct {
	Type     string `json:"type"`
	HasValue bool   `json:"has_value"`
	Value    string `json:"value"`
}

func (m *Monitor) listRecords(w http.ResponseWriter, _ *http.Request) {
	m.pipeline.Pause()
	defer m.pipeline.Continue()

	var rsp []recordRsp

	for _, t := range m.pipeline.StateTypes() {
		v, ok := m.pipeline.CurrentValue(t)
		rsp = append(rsp, recordRsp{
			Type:     t.String(),
			HasValue: ok,
			Value:    fmt.Sprintf("%+v", v),
		})
	}

	err := json.NewEncoder(w).Encode(rsp)
	dieOnErr(err)
}

func (m *Monitor) queueDepths(w http.ResponseWriter, _ *http.Request) {
	m.pipeline.Pause()
	defer m.pipeline.Continue()

	critical, high, normal := m.pipeline.QueueDepths()
	fmt.Fprintf(w,
		"{\"critical\":%d,\"high\":%d,\"normal\":%d,\"pending_actions\":%d}",
		critical, high, normal, m.pipeline.PendingActions())
}

func (m *Monitor) listScopes(w http.ResponseWriter, _ *http.Request) {
	m.scopesLock.Lock()
	defer m.scopesLock.Unlock()

	fmt.Fprint(w, "[")
	for i, s := range m.scopes {
		if i > 0 {
			fmt.Fprint(w, ",")
		}

		fmt.Fprintf(w, "\"%s\"", s.Name())
	}
	fmt.Fprint(w, "]")
}

type elementRsp struct {
	Key   string `json:"key"`
	Order int    `json:"order"`
	Props string `json:"props"`
}

func (m *Monitor) listScopeElements(w http.ResponseWriter, r *http.Request) {
	name := mux.Vars(r)["name"]

	scope := m.findScopeOr404(w, name)
	if scope == nil {
		return
	}

	rsp := make([]elementRsp, 0)
	for _, me := range scope.Elements() {
		rsp = append(rsp, elementRsp{
			Key:   me.Key,
			Order: me.Order,
			Props: fmt.Sprintf("%+v", me.Props),
		})
	}

	err := json.NewEncoder(w).Encode(rsp)
	dieOnErr(err)
}

func (m *Monitor) findScopeOr404(
	w http.ResponseWriter,
	name string,
) *reconcile.Scope {
	m.scopesLock.Lock()
	defer m.scopesLock.Unlock()

	for _, s := range m.scopes {
		if s.Name() == name {
			return s
		}
	}

	w.WriteHeader(404)

	return nil
}

func (m *Monitor) listComponentDetails(
	w http.ResponseWriter,
	r *http.Request,
) {
	name := mux.Vars(r)["name"]

	m.componentsLock.Lock()
	component, found := m.components[name]
	m.componentsLock.Unlock()

	if !found {
		w.WriteHeader(404)
		return
	}

	serializer := goseth.NewSerializer()
	serializer.SetRoot(component)
	serializer.SetMaxDepth(1)

	err := serializer.Serialize(w)
	dieOnErr(err)
}

func (m *Monitor) listProgressBars(w http.ResponseWriter, _ *http.Request) {
	m.progressBarsLock.Lock()
	defer m.progressBarsLock.Unlock()

	err := json.NewEncoder(w).Encode(m.progressBars)
	dieOnErr(err)
}

type resourceRsp struct {
	CPUPercent float64 `json:"cpu_percent"`
	MemorySize uint64  `json:"memory_size"`
}

func (m *Monitor) listResources(w http.ResponseWriter, _ *http.Request) {
	pid := os.Getpid()
	proc, err := process.NewProcess(int32(pid))
	dieOnErr(err)

	cpuPercent, err := proc.CPUPercent()
	dieOnErr(err)

	memorySize, err := proc.MemoryInfo()
	dieOnErr(err)

	rsp := resourceRsp{
		CPUPercent: cpuPercent,
		MemorySize: memorySize.RSS,
	}

	err = json.NewEncoder(w).Encode(rsp)
	dieOnErr(err)
}

func dieOnErr(err error) {
	if err != nil {
		panic(err)
	}
}
