package stats

import (
	"encoding/json"
	"expvar"
	"net/http"
	"sync"
	"time"
)

const (
	NumActiveClients     = "NumActiveClients"
	NumIdentifiedUsers   = "NumIdentifiedUsers"
	NumActiveRooms       = "NumActiveRooms"
	NumChatMessages      = "NumChatMessages"
	NumSignalingMessages = "NumSignalingMessages"
)

type StatsProvider interface {
	Incr(name string)
	Decr(name string)
	RegisterMetric(name string)
}

type StatsUpdater struct {
	vars       *expvar.Map
	updateChan chan *metricsUpdateReq
	stop       chan struct{}
	stopOnce   sync.Once
}

type metricsUpdateReq struct {
	name  string
	value int
}

func (su *StatsUpdater) expvarHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	expvarData := make(map[string]any)
	su.vars.Do(func(kv expvar.KeyValue) {
		var value any
		json.Unmarshal([]byte(kv.Value.String()), &value)
		expvarData[kv.Key] = value
	})

	json.NewEncoder(w).Encode(expvarData)
}

// NewStatsUpdater creates a new stats updater instance and serves its
// variables on GET /debug/vars of mux.
func NewStatsUpdater(mux *http.ServeMux) *StatsUpdater {
	su := &StatsUpdater{
		updateChan: make(chan *metricsUpdateReq, 512),
		stop:       make(chan struct{}),
		vars:       new(expvar.Map).Init(),
	}
	mux.Handle("GET /debug/vars", http.HandlerFunc(su.expvarHandler))
	su.initializeMetrics()

	return su
}

// Publish exposes the updater's variables under name in the process-wide
// expvar registry. It must be called at most once per name.
func (su *StatsUpdater) Publish(name string) {
	expvar.Publish(name, su.vars)
}

func (su *StatsUpdater) initializeMetrics() {
	startTime := time.Now()
	su.vars.Set("Uptime", expvar.Func(func() any {
		return time.Since(startTime).Milliseconds()
	}))
}

func (su *StatsUpdater) updateMetrics() {
	for {
		select {
		case req := <-su.updateChan:
			metric := su.vars.Get(req.name)
			if metric == nil {
				panic("metric not found: " + req.name)
			}

			metric.(*expvar.Int).Add(int64(req.value))
		case <-su.stop:
			return
		}
	}
}

// update hands req to the updater goroutine. Updates after Stop are dropped.
func (su *StatsUpdater) update(req *metricsUpdateReq) {
	select {
	case su.updateChan <- req:
	case <-su.stop:
	}
}

func (su *StatsUpdater) Incr(name string) {
	su.update(&metricsUpdateReq{name: name, value: 1})
}

func (su *StatsUpdater) Decr(name string) {
	su.update(&metricsUpdateReq{name: name, value: -1})
}

func (su *StatsUpdater) RegisterMetric(name string) {
	if su.vars.Get(name) != nil {
		return
	}
	su.vars.Set(name, new(expvar.Int))
}

func (su *StatsUpdater) Run() {
	go su.updateMetrics()
}

// Stop ends the updater goroutine. It is safe to call more than once, and
// Incr or Decr afterwards is a no-op.
func (su *StatsUpdater) Stop() {
	su.stopOnce.Do(func() { close(su.stop) })
}
