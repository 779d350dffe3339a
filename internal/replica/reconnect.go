package replica

import (
	"time"

	cclog "github.com/ClusterCockpit/cc-lib/v2/ccLogger"
	"github.com/go-co-op/gocron/v2"
)

// reconnectInterval is how often the sweep checks for down peers whose
// backoff has elapsed. The per-peer backoff in peer.go is what actually
// spaces out retries against a single persistently-unreachable peer;
// this interval just bounds how promptly a recovered peer is noticed.
const reconnectInterval = 2 * time.Second

// startReconnectSweep schedules a recurring job that re-dials any peer
// currently marked down whose backoff has elapsed. Unlike the request
// path, the sweep runs independently of traffic, so a replica that comes
// back up is rejoined even if nothing is being written in the meantime.
func startReconnectSweep(s *Sink) {
	scheduler, err := gocron.NewScheduler()
	if err != nil {
		cclog.Errorf("[CACHED]> replica: could not start reconnect scheduler: %s", err)
		return
	}

	_, err = scheduler.NewJob(
		gocron.DurationJob(reconnectInterval),
		gocron.NewTask(func() { sweepOnce(s) }),
	)
	if err != nil {
		cclog.Errorf("[CACHED]> replica: could not schedule reconnect sweep: %s", err)
		return
	}

	scheduler.Start()

	go func() {
		<-s.closeCh
		_ = scheduler.Shutdown()
	}()
}

func sweepOnce(s *Sink) {
	now := time.Now()
	for _, p := range s.peers {
		if !p.dueForRetry(now) {
			continue
		}
		if err := p.reconnect(); err != nil {
			cclog.Debugf("[CACHED]> replica: reconnect to %s still failing: %s", p.addr, err)
			continue
		}
		cclog.Infof("[CACHED]> replica: reconnected to %s", p.addr)
		if s.statusHook != nil {
			s.statusHook(p.addr, true)
		}
	}
}
