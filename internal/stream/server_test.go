package stream

import (
	"context"
	"image"
	"io"
	"mime"
	"mime/multipart"
	"net"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"strings"
	"testing"
	"time"

	"agent-compositor/internal/input"

	"github.com/gorilla/websocket"
)

func newTestServer(t *testing.T) (*httptest.Server, *Hub, input.Queues) {
	t.Helper()
	hub := NewHub()
	qs := input.NewQueues(8)
	ts := httptest.NewServer(NewServer(hub, qs))
	t.Cleanup(ts.Close)
	return ts, hub, qs
}

func postForm(t *testing.T, ts *httptest.Server, path string, form url.Values) int {
	t.Helper()
	resp, err := http.PostForm(ts.URL+path, form)
	if err != nil {
		t.Fatalf("POST %s: %v", path, err)
	}
	resp.Body.Close()
	return resp.StatusCode
}

// readPart reads one stream part by its Content-Length. The part's closing
// delimiter is only written with the next frame.
func readPart(p *multipart.Part) ([]byte, error) {
	n, err := strconv.Atoi(p.Header.Get("Content-Length"))
	if err != nil {
		return nil, err
	}
	buf := make([]byte, n)
	_, err = io.ReadFull(p, buf)
	return buf, err
}

func TestIndex(t *testing.T) {
	ts, _, _ := newTestServer(t)
	resp, err := http.Get(ts.URL + "/")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	body, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	if !strings.Contains(string(body), "/state/update") {
		t.Error("index does not reference the frame stream")
	}
}

func TestMouseRoutes(t *testing.T) {
	ts, _, qs := newTestServer(t)

	if code := postForm(t, ts, "/mouse/move", url.Values{"x": {"12"}, "y": {"34"}}); code != http.StatusNoContent {
		t.Fatalf("move status = %d", code)
	}
	if code := postForm(t, ts, "/mouse/click", url.Values{"button": {"2"}}); code != http.StatusNoContent {
		t.Fatalf("click status = %d", code)
	}

	ctx := context.Background()
	e, err := qs.Mouse.Get(ctx)
	if err != nil || e.Kind != input.MouseMove || e.X != 12 || e.Y != 34 {
		t.Errorf("first event = %+v, %v", e, err)
	}
	e, err = qs.Mouse.Get(ctx)
	if err != nil || e.Kind != input.MouseClick || e.Button != 2 {
		t.Errorf("second event = %+v, %v", e, err)
	}
	if qs.Keys.Len() != 0 {
		t.Error("mouse events leaked into the key queue")
	}
}

func TestKeyRoute(t *testing.T) {
	ts, _, qs := newTestServer(t)

	form := url.Values{"Key": {"a"}, "shiftKey": {"true"}, "ctrlKey": {"false"}}
	if code := postForm(t, ts, "/key/update", form); code != http.StatusNoContent {
		t.Fatalf("status = %d", code)
	}
	e, err := qs.Keys.Get(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if e.Key != "a" || !e.Shift || e.Ctrl || e.Alt {
		t.Errorf("event = %+v", e)
	}
}

func TestBadInput(t *testing.T) {
	ts, _, qs := newTestServer(t)

	cases := []struct {
		path string
		form url.Values
	}{
		{"/mouse/move", url.Values{"x": {"1"}}},
		{"/mouse/move", url.Values{"x": {"a"}, "y": {"1"}}},
		{"/mouse/click", url.Values{}},
		{"/key/update", url.Values{"Key": {""}}},
		{"/key/update", url.Values{"Key": {"b"}, "altKey": {"maybe"}}},
	}
	for _, c := range cases {
		if code := postForm(t, ts, c.path, c.form); code != http.StatusBadRequest {
			t.Errorf("%s %v: status = %d, want 400", c.path, c.form, code)
		}
	}
	if qs.Mouse.Len() != 0 || qs.Keys.Len() != 0 {
		t.Error("rejected input was queued")
	}
}

func TestSnapshot(t *testing.T) {
	ts, hub, _ := newTestServer(t)

	resp, err := http.Get(ts.URL + "/snapshot.webp")
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusServiceUnavailable {
		t.Fatalf("before publish: status = %d", resp.StatusCode)
	}

	hub.Publish(&Frame{Data: []byte("x"), ContentType: "image/jpeg", Image: image.NewNRGBA(image.Rect(0, 0, 4, 4))})

	resp, err = http.Get(ts.URL + "/snapshot.webp")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("after publish: status = %d", resp.StatusCode)
	}
	if ct := resp.Header.Get("Content-Type"); ct != "image/webp" {
		t.Errorf("content type = %q", ct)
	}
}

func TestHub_WaitAndPublish(t *testing.T) {
	hub := NewHub()
	if hub.Latest() != nil {
		t.Fatal("new hub has a frame")
	}

	got := make(chan *Frame, 1)
	go func() {
		f, err := hub.Wait(context.Background(), 0)
		if err != nil {
			t.Error(err)
		}
		got <- f
	}()

	hub.Publish(&Frame{Data: []byte("one")})
	select {
	case f := <-got:
		if f.Seq != 1 || string(f.Data) != "one" {
			t.Errorf("frame = %+v", f)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Wait did not wake up")
	}

	hub.Publish(&Frame{Data: []byte("two")})
	hub.Publish(&Frame{Data: []byte("three")})
	f, err := hub.Wait(context.Background(), 1)
	if err != nil || f.Seq != 3 || string(f.Data) != "three" {
		t.Errorf("Wait(1) = %+v, %v; want the newest frame", f, err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := hub.Wait(ctx, 3); err == nil {
		t.Error("Wait on cancelled context returned no error")
	}
}

func TestStream(t *testing.T) {
	ts, hub, _ := newTestServer(t)
	hub.Publish(&Frame{Data: []byte("frame-one"), ContentType: "image/jpeg"})

	resp, err := http.Get(ts.URL + "/state/update")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()

	mt, params, err := mime.ParseMediaType(resp.Header.Get("Content-Type"))
	if err != nil {
		t.Fatal(err)
	}
	if mt != "multipart/x-mixed-replace" || params["boundary"] != Boundary {
		t.Fatalf("content type = %s %v", mt, params)
	}

	mr := multipart.NewReader(resp.Body, Boundary)
	part, err := mr.NextPart()
	if err != nil {
		t.Fatal(err)
	}
	data, err := readPart(part)
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "frame-one" || part.Header.Get("Content-Type") != "image/jpeg" {
		t.Errorf("part = %q %v", data, part.Header)
	}

	hub.Publish(&Frame{Data: []byte("frame-two"), ContentType: "image/jpeg"})
	part, err = mr.NextPart()
	if err != nil {
		t.Fatal(err)
	}
	data, _ = readPart(part)
	if string(data) != "frame-two" {
		t.Errorf("second part = %q", data)
	}
}

func TestWebSocket(t *testing.T) {
	ts, _, qs := newTestServer(t)

	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(ts.URL, "http")+"/ws", nil)
	if err != nil {
		t.Fatal(err)
	}
	defer conn.Close()

	if err := conn.WriteJSON(input.Event{Kind: input.Key, Key: "Enter", Ctrl: true}); err != nil {
		t.Fatal(err)
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	e, err := qs.Keys.Get(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if e.Key != "Enter" || !e.Ctrl {
		t.Errorf("event = %+v", e)
	}

	if err := conn.WriteJSON(input.Event{Kind: "scroll"}); err != nil {
		t.Fatal(err)
	}
	conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	var reply wsReply
	if err := conn.ReadJSON(&reply); err != nil {
		t.Fatal(err)
	}
	if reply.Error == "" {
		t.Error("invalid event was not rejected")
	}
}

func TestStream_HeadersBeforeFirstFrame(t *testing.T) {
	ts, _, _ := newTestServer(t)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, ts.URL+"/state/update", nil)
	if err != nil {
		t.Fatal(err)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("GET with no frame published: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("status = %d", resp.StatusCode)
	}
	if mt, _, _ := mime.ParseMediaType(resp.Header.Get("Content-Type")); mt != "multipart/x-mixed-replace" {
		t.Errorf("content type = %q", mt)
	}
}

func TestServe_ShutdownWithOpenStream(t *testing.T) {
	hub := NewHub()
	hub.Publish(&Frame{Data: []byte("frame"), ContentType: "image/jpeg"})
	srv := NewServer(hub, input.NewQueues(4))

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- srv.Serve(ctx, ln) }()

	resp, err := http.Get("http://" + ln.Addr().String() + "/state/update")
	if err != nil {
		cancel()
		t.Fatal(err)
	}
	defer resp.Body.Close()
	part, err := multipart.NewReader(resp.Body, Boundary).NextPart()
	if err != nil {
		cancel()
		t.Fatal(err)
	}
	if _, err := readPart(part); err != nil {
		cancel()
		t.Fatal(err)
	}

	start := time.Now()
	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Serve = %v, want nil", err)
		}
		if d := time.Since(start); d > 2*time.Second {
			t.Errorf("shutdown took %v", d)
		}
	case <-time.After(10 * time.Second):
		t.Fatal("Serve did not return after cancel")
	}
}
