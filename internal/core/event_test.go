package core

import (
	"encoding/json"
	"errors"
	"testing"
)

type otherEvent struct{}

func (otherEvent) Kind() string { return "other" }

func TestComputeEdits(t *testing.T) {
	files := []File{{Path: "a.md", Content: "[b](b.md)"}}
	rename := RenameEvent{PathBefore: "b.md", PathAfter: "c.md"}
	want := []Edit{edit("a.md", 0, 0, 9, "[b](c.md)", "")}

	got, err := ComputeEdits(rename, files, Options{})
	if err != nil {
		t.Fatal(err)
	}
	assertEdits(t, got, want)

	got, err = ComputeEdits(&rename, files, Options{})
	if err != nil {
		t.Fatal(err)
	}
	assertEdits(t, got, want)

	save := SaveEvent{Path: "a.md", ContentBefore: "# X\n[x](#x)", ContentAfter: "# Y\n[x](#x)"}
	got, err = ComputeEdits(save, nil, Options{})
	if err != nil {
		t.Fatal(err)
	}
	assertEdits(t, got, []Edit{edit("a.md", 1, 0, 7, "[x](#y)", "")})
}

func TestComputeEdits_NoPlanner(t *testing.T) {
	var nilRename *RenameEvent
	var nilSave *SaveEvent
	for _, ev := range []Event{nil, nilRename, nilSave, otherEvent{}} {
		got, err := ComputeEdits(ev, []File{{Path: "a.md", Content: "[b](b.md)"}}, Options{})
		if err != nil || got != nil {
			t.Errorf("ComputeEdits(%T) = %v, %v, want nil, nil", ev, got, err)
		}
	}
}

func TestComputeEdits_EmptySnapshot(t *testing.T) {
	got, err := ComputeEdits(RenameEvent{PathBefore: "x.md", PathAfter: "y.md"}, nil, Options{})
	if err != nil || len(got) != 0 {
		t.Errorf("got %v, %v", got, err)
	}
}

func TestDecodeEvent(t *testing.T) {
	ev, err := DecodeEvent([]byte(`{"type":"rename","payload":{"pathBefore":"a.md","pathAfter":"b/a.md","isDir":false}}`))
	if err != nil {
		t.Fatal(err)
	}
	r, ok := ev.(RenameEvent)
	if !ok || r.PathBefore != "a.md" || r.PathAfter != "b/a.md" {
		t.Errorf("DecodeEvent = %#v", ev)
	}

	ev, err = DecodeEvent([]byte(`{"type":"save","payload":{"path":"a.md","contentBefore":"# A","contentAfter":"# B"}}`))
	if err != nil {
		t.Fatal(err)
	}
	s, ok := ev.(SaveEvent)
	if !ok || s.Path != "a.md" || s.ContentAfter != "# B" {
		t.Errorf("DecodeEvent = %#v", ev)
	}
}

func TestDecodeEvent_Errors(t *testing.T) {
	tests := []string{
		`not json`,
		`{"type":"rename"}`,
		`{"type":"rename","payload":{"pathBefore":"a.md"}}`,
		`{"type":"save","payload":{"contentAfter":"x"}}`,
		`{"type":"delete","payload":{}}`,
		`{"type":"save","payload":"text"}`,
	}
	for _, in := range tests {
		if _, err := DecodeEvent([]byte(in)); !errors.Is(err, ErrBadEvent) {
			t.Errorf("DecodeEvent(%q) err = %v, want ErrBadEvent", in, err)
		}
	}
}

func TestWireEvent(t *testing.T) {
	var req struct {
		Event WireEvent `json:"event"`
		Files []File    `json:"files"`
	}
	body := `{"event":{"type":"rename","payload":{"pathBefore":"x.md","pathAfter":"y.md"}},"files":[{"path":"a.md","content":"[x](x.md)"}]}`
	if err := json.Unmarshal([]byte(body), &req); err != nil {
		t.Fatal(err)
	}
	if req.Event.Event.Kind() != EventRename || len(req.Files) != 1 {
		t.Fatalf("decoded %+v", req)
	}

	out, err := json.Marshal(req.Event)
	if err != nil {
		t.Fatal(err)
	}
	back, err := DecodeEvent(out)
	if err != nil {
		t.Fatal(err)
	}
	if back != req.Event.Event {
		t.Errorf("re-decoded %#v, want %#v", back, req.Event.Event)
	}
}

func TestEncodeEvent_Nil(t *testing.T) {
	if _, err := EncodeEvent(nil); !errors.Is(err, ErrBadEvent) {
		t.Errorf("err = %v, want ErrBadEvent", err)
	}
}
