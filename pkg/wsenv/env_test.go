package wsenv

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/vango-dev/hashnav/pkg/hashnav"
)

// dialBridge starts a bridge server around session and connects a fake
// browser shim to it. The returned connection has already sent its init
// message.
func dialBridge(t *testing.T, init Message, session SessionFunc) *websocket.Conn {
	t.Helper()

	handler := NewHandler(session,
		WithCheckOrigin(func(*http.Request) bool { return true }),
	)
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	url := "ws" + strings.TrimPrefix(server.URL, "http") + "/"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { conn.Close() })

	init.Op = OpInit
	if err := conn.WriteJSON(init); err != nil {
		t.Fatalf("init: %v", err)
	}
	return conn
}

// waitFor polls cond for up to two seconds.
func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s", what)
}

func TestAcceptPopulatesCache(t *testing.T) {
	envCh := make(chan *Environment, 1)
	dialBridge(t, Message{Fragment: "#!/home", Search: "?theme=dark", X: 3, Y: 7},
		func(env *Environment) func() {
			envCh <- env
			return nil
		})

	env := <-envCh
	if env.Fragment() != "#!/home" {
		t.Errorf("Fragment = %q", env.Fragment())
	}
	if env.Search() != "?theme=dark" {
		t.Errorf("Search = %q", env.Search())
	}
	if x, y := env.Offsets(); x != 3 || y != 7 {
		t.Errorf("Offsets = (%v, %v)", x, y)
	}
}

func TestPushSendsCommand(t *testing.T) {
	envCh := make(chan *Environment, 1)
	conn := dialBridge(t, Message{Fragment: ""},
		func(env *Environment) func() {
			envCh <- env
			return nil
		})
	env := <-envCh

	env.Push("#!/next")

	var msg Message
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	if err := conn.ReadJSON(&msg); err != nil {
		t.Fatalf("read: %v", err)
	}
	if msg.Op != OpPush || msg.Fragment != "#!/next" {
		t.Errorf("got %+v, want push #!/next", msg)
	}
	if env.Fragment() != "#!/next" {
		t.Errorf("cache = %q, want written fragment", env.Fragment())
	}
}

func TestHashChangeDrivesEngine(t *testing.T) {
	navCh := make(chan *hashnav.Engine, 1)
	conn := dialBridge(t, Message{Fragment: "#!/home"},
		func(env *Environment) func() {
			nav := hashnav.New(env)
			navCh <- nav
			return nav.Destroy
		})
	nav := <-navCh

	if got := nav.CurrentRoute().Path; got != "home" {
		t.Fatalf("initial path = %q", got)
	}

	if err := conn.WriteJSON(Message{Op: OpHashChange, Fragment: "#!/remote?a=1"}); err != nil {
		t.Fatalf("write: %v", err)
	}

	waitFor(t, "engine to commit remote route", func() bool {
		return nav.CurrentRoute().Path == "remote"
	})
	if got := nav.CurrentRoute().Params.Get("a"); got != "1" {
		t.Errorf("a = %q, want 1", got)
	}
}

func TestHasElementRoundTrip(t *testing.T) {
	envCh := make(chan *Environment, 1)
	conn := dialBridge(t, Message{},
		func(env *Environment) func() {
			envCh <- env
			return nil
		})
	env := <-envCh

	resultCh := make(chan bool, 1)
	go func() { resultCh <- env.HasElement("section1") }()

	var query Message
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	if err := conn.ReadJSON(&query); err != nil {
		t.Fatalf("read: %v", err)
	}
	if query.Op != OpHasElement || query.ID != "section1" {
		t.Fatalf("got %+v, want haselement section1", query)
	}
	if err := conn.WriteJSON(Message{Op: OpElementResult, Seq: query.Seq, Exists: true}); err != nil {
		t.Fatalf("write: %v", err)
	}

	select {
	case exists := <-resultCh:
		if !exists {
			t.Error("HasElement = false, want true")
		}
	case <-time.After(2 * time.Second):
		t.Fatal("HasElement did not return")
	}
}

func TestHasElementTimesOutToAbsent(t *testing.T) {
	envCh := make(chan *Environment, 1)
	dialBridge(t, Message{},
		func(env *Environment) func() {
			envCh <- env
			return nil
		})
	env := <-envCh
	env.timeout = 50 * time.Millisecond

	// Nobody answers the query.
	if env.HasElement("ghost") {
		t.Error("HasElement = true on timeout, want absent")
	}
}

func TestRequestFrameRunsOnAck(t *testing.T) {
	envCh := make(chan *Environment, 1)
	conn := dialBridge(t, Message{},
		func(env *Environment) func() {
			envCh <- env
			return nil
		})
	env := <-envCh

	ran := make(chan struct{})
	env.RequestFrame(func() { close(ran) })

	var frame Message
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	if err := conn.ReadJSON(&frame); err != nil {
		t.Fatalf("read: %v", err)
	}
	if frame.Op != OpFrame {
		t.Fatalf("got %+v, want frame request", frame)
	}
	if err := conn.WriteJSON(Message{Op: OpFrameDone, Seq: frame.Seq}); err != nil {
		t.Fatalf("write: %v", err)
	}

	select {
	case <-ran:
	case <-time.After(2 * time.Second):
		t.Fatal("frame callback never ran")
	}
}

func TestCloseResolvesPendingQueries(t *testing.T) {
	envCh := make(chan *Environment, 1)
	conn := dialBridge(t, Message{},
		func(env *Environment) func() {
			envCh <- env
			return nil
		})
	env := <-envCh

	resultCh := make(chan bool, 1)
	go func() { resultCh <- env.HasElement("anything") }()

	// Swallow the query, then drop the connection.
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var query Message
	if err := conn.ReadJSON(&query); err != nil {
		t.Fatalf("read: %v", err)
	}
	conn.Close()

	select {
	case exists := <-resultCh:
		if exists {
			t.Error("HasElement = true after close")
		}
	case <-time.After(2 * time.Second):
		t.Fatal("HasElement hung after close")
	}
}
