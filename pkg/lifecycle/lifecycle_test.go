package lifecycle

import (
    "context"
    "errors"
    "testing"
)

type fakeService struct {
    name     string
    startErr error
    log      *[]string
}

func (f *fakeService) Name() string { return f.name }
func (f *fakeService) Start(ctx context.Context) error {
    *f.log = append(*f.log, "start:"+f.name)
    return f.startErr
}
func (f *fakeService) Stop(ctx context.Context) error {
    *f.log = append(*f.log, "stop:"+f.name)
    return nil
}

func TestStartStopOrder(t *testing.T) {
    var log []string
    m := New()
    m.Add(&fakeService{name: "a", log: &log})
    m.Add(&fakeService{name: "b", log: &log})
    if err := m.StartAll(context.Background()); err != nil { t.Fatalf("start: %v", err) }
    if err := m.StopAll(context.Background()); err != nil { t.Fatalf("stop: %v", err) }

    want := []string{"start:a", "start:b", "stop:b", "stop:a"}
    if len(log) != len(want) { t.Fatalf("log = %v", log) }
    for i := range want {
        if log[i] != want[i] { t.Fatalf("log[%d] = %q, want %q", i, log[i], want[i]) }
    }
}

func TestStartFailure_StopsStarted(t *testing.T) {
    var log []string
    boom := errors.New("boom")
    m := New()
    m.Add(&fakeService{name: "a", log: &log})
    m.Add(&fakeService{name: "b", startErr: boom, log: &log})
    if err := m.StartAll(context.Background()); !errors.Is(err, boom) {
        t.Fatalf("want start error, got %v", err)
    }
    // a was started before b failed, so a must have been stopped.
    found := false
    for _, e := range log { if e == "stop:a" { found = true } }
    if !found { t.Fatalf("service a not stopped after start failure: %v", log) }
}
