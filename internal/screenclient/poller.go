// Package screenclient drives an unattended display. It never holds a
// control connection of its own: it polls the screen resolution
// endpoint on a fixed interval and only dials in as a viewer once the
// owner is actually presenting.
package screenclient

import (
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/rs/zerolog/log"

	"github.com/tkoskin/praisecast/internal/domain"
)

// DefaultInterval is the reference poll cadence for remote screens.
const DefaultInterval = 5 * time.Second

type State int

const (
	StateLoading State = iota
	StateError
	StateWaiting
	StateDisplaying
)

func (s State) String() string {
	switch s {
	case StateLoading:
		return "loading"
	case StateError:
		return "error"
	case StateWaiting:
		return "waiting"
	case StateDisplaying:
		return "displaying"
	}
	return "unknown"
}

// Resolution mirrors the screen resolution endpoint payload.
type Resolution struct {
	Screen struct {
		Name        string             `json:"name"`
		DisplayType domain.DisplayType `json:"displayType"`
		Config      map[string]string  `json:"config"`
	} `json:"screen"`
	Room *struct {
		Pin   domain.PIN `json:"pin"`
		Theme string     `json:"theme"`
	} `json:"room"`
}

// ViewerConn is a live viewer attachment established once a room is
// resolved. The poller owns it and closes it when the room goes away.
type ViewerConn interface {
	Close() error
}

// AttachFunc joins the resolved room as a viewer.
type AttachFunc func(pin domain.PIN) (ViewerConn, error)

// Poller is the screen's state machine. One goroutine, one ticker;
// every tick independently re-resolves the screen. A slow or failed
// poll never delays or stacks the next scheduled one, and Stop cancels
// the loop deterministically.
type Poller struct {
	client   *resty.Client
	baseURL  string
	ownerID  string
	screenID string
	interval time.Duration

	// Attach defaults to a websocket viewer dial against baseURL.
	Attach AttachFunc
	// OnState is invoked on every state transition.
	OnState func(State)
	// OnEvent receives room broadcasts while displaying.
	OnEvent func([]byte)

	mu       sync.Mutex
	state    State
	reason   string
	pin      domain.PIN
	conn     ViewerConn
	running  bool
	stop     chan struct{}
	done     chan struct{}
	stopOnce *sync.Once
}

func NewPoller(baseURL, ownerID, screenID string, interval time.Duration) *Poller {
	if interval <= 0 {
		interval = DefaultInterval
	}
	// No resty retries: a failed poll waits for the next scheduled
	// tick instead of retrying immediately.
	client := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(interval).
		SetHeader("Accept", "application/json")

	return &Poller{
		client:   client,
		baseURL:  baseURL,
		ownerID:  ownerID,
		screenID: screenID,
		interval: interval,
		state:    StateLoading,
	}
}

func (p *Poller) State() State {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state
}

// ErrorReason distinguishes "unknown screen" from a generic fetch
// failure; both are terminal but show different text.
func (p *Poller) ErrorReason() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.reason
}

func (p *Poller) Start() {
	p.mu.Lock()
	if p.running {
		p.mu.Unlock()
		return
	}
	p.running = true
	p.stop = make(chan struct{})
	p.done = make(chan struct{})
	p.stopOnce = new(sync.Once)
	if p.Attach == nil {
		p.Attach = DialViewer(p.baseURL, p.emitEvent)
	}
	p.mu.Unlock()
	go p.loop()
}

// Stop cancels the polling loop and tears down any viewer connection.
// Safe to call more than once and after a terminal error.
func (p *Poller) Stop() {
	p.mu.Lock()
	if !p.running {
		p.mu.Unlock()
		return
	}
	once, stop, done := p.stopOnce, p.stop, p.done
	p.mu.Unlock()

	once.Do(func() { close(stop) })
	<-done

	p.mu.Lock()
	p.running = false
	p.mu.Unlock()
}

// Reload is the manual escape from the terminal Error state.
func (p *Poller) Reload() {
	p.Stop()
	p.setState(StateLoading, "")
	p.Start()
}

func (p *Poller) loop() {
	defer close(p.done)
	defer p.detach()

	if p.poll() {
		return
	}
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()
	for {
		select {
		case <-p.stop:
			return
		case <-ticker.C:
			if p.poll() {
				return
			}
		}
	}
}

// poll performs one independent resolution tick. Returns true when the
// outcome is terminal and the loop must end.
func (p *Poller) poll() (terminal bool) {
	var res Resolution
	resp, err := p.client.R().
		SetResult(&res).
		Get(fmt.Sprintf("/api/screens/%s/%s", p.ownerID, p.screenID))

	if err != nil {
		// Before the first successful resolution there is nothing to
		// fall back to; afterwards the failure is transient and the
		// next tick retries.
		if p.State() == StateLoading {
			p.setState(StateError, "could not reach the server")
			return true
		}
		log.Warn().Err(err).Str("module", "screenclient").Msg("poll failed, retrying next tick")
		return false
	}

	switch resp.StatusCode() {
	case http.StatusOK:
	case http.StatusNotFound:
		p.setState(StateError, "unknown screen")
		return true
	default:
		if p.State() == StateLoading {
			p.setState(StateError, fmt.Sprintf("unexpected status %d", resp.StatusCode()))
			return true
		}
		log.Warn().Int("status", resp.StatusCode()).Str("module", "screenclient").Msg("poll failed, retrying next tick")
		return false
	}

	if res.Room == nil {
		p.enterWaiting()
		return false
	}
	p.enterDisplaying(res.Room.Pin)
	return false
}

func (p *Poller) enterWaiting() {
	p.detach()
	p.setState(StateWaiting, "")
}

func (p *Poller) enterDisplaying(pin domain.PIN) {
	p.mu.Lock()
	if p.conn != nil && p.pin == pin {
		p.mu.Unlock()
		p.setState(StateDisplaying, "")
		return
	}
	if p.conn != nil {
		_ = p.conn.Close()
		p.conn = nil
	}
	attach := p.Attach
	p.mu.Unlock()

	conn, err := attach(pin)
	if err != nil {
		// Keep waiting; the next tick re-resolves and retries.
		log.Warn().Err(err).Str("module", "screenclient").Str("pin", string(pin)).Msg("viewer attach failed")
		p.setState(StateWaiting, "")
		return
	}

	p.mu.Lock()
	p.conn = conn
	p.pin = pin
	p.mu.Unlock()
	log.Info().Str("module", "screenclient").Str("pin", string(pin)).Msg("attached to room")
	p.setState(StateDisplaying, "")
}

func (p *Poller) detach() {
	p.mu.Lock()
	conn := p.conn
	p.conn = nil
	p.pin = ""
	p.mu.Unlock()
	if conn != nil {
		_ = conn.Close()
	}
}

func (p *Poller) setState(s State, reason string) {
	p.mu.Lock()
	changed := p.state != s
	p.state = s
	p.reason = reason
	onState := p.OnState
	p.mu.Unlock()
	if changed {
		log.Info().Str("module", "screenclient").Str("state", s.String()).Str("reason", reason).Msg("state change")
		if onState != nil {
			onState(s)
		}
	}
}

func (p *Poller) emitEvent(data []byte) {
	p.mu.Lock()
	onEvent := p.OnEvent
	p.mu.Unlock()
	if onEvent != nil {
		onEvent(data)
	}
}
