// Package persistencetest holds the behaviour every persistence driver must
// show, run by each driver's own tests.
package persistencetest

import (
	"context"
	"encoding/json"
	"testing"

	"pcspec/internal/infra/persistence/generation"
	"pcspec/pkg/domain"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
)

// Harness opens a fresh, empty driver together with raw access to the same
// underlying documents.
type Harness func(t *testing.T) (domain.PersistentStore, generation.Documents)

// Run executes the driver contract against stores produced by open.
func Run(t *testing.T, open Harness) {
	t.Helper()
	cases := []struct {
		name string
		fn   func(*testing.T, Harness)
	}{
		{"LoadMissingIsEmpty", loadMissingIsEmpty},
		{"LoadEmptyOrMalformedIsEmpty", loadMalformedIsEmpty},
		{"SaveLoadRoundTrip", saveLoadRoundTrip},
		{"SaveReplaces", saveReplaces},
		{"BackupWithoutLiveIsNoop", backupWithoutLive},
		{"BackupRotatesTwoGenerations", backupRotates},
		{"BackupCopiesBytesVerbatim", backupVerbatim},
		{"GenerationsReportPresentDocuments", generationsReported},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) { tc.fn(t, open) })
	}
}

// Snapshot flattens a Store to an order-preserving comparable form.
func Snapshot(t *testing.T, s *domain.Store) []string {
	t.Helper()
	out := make([]string, 0, s.Len())
	for _, pc := range s.PCs() {
		data, err := json.Marshal(pc.Components())
		if err != nil {
			t.Fatalf("marshal %s: %v", pc.Name(), err)
		}
		out = append(out, pc.Name()+"="+string(data))
	}
	return out
}

// GamingRig builds the single-PC catalogue used across driver tests.
func GamingRig() *domain.Store {
	s := domain.NewStore()
	s.AddPC("gaming rig", domain.Components{})
	pc, _ := s.PC("gaming rig")
	pc.AddComponent("cpu", domain.NewSpec("name", "i7-9700K"))
	return s
}

func richStore() *domain.Store {
	s := GamingRig()
	var office domain.Components
	office.Set("Zeta", domain.NewSpec("b", "2", "a", "1"))
	office.Set("mobo", domain.Spec{})
	office.Set("Alpha", domain.NewSpec("Socket", "AM5"))
	s.AddPC("Office", office)
	s.AddPC("Empty", domain.Components{})
	return s
}

func read(t *testing.T, docs generation.Documents, name string) ([]byte, bool) {
	t.Helper()
	data, ok, err := docs.Read(context.Background(), name)
	if err != nil {
		t.Fatalf("read %s: %v", name, err)
	}
	return data, ok
}

func load(t *testing.T, ps domain.PersistentStore) *domain.Store {
	t.Helper()
	s, err := ps.Load(context.Background())
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if s == nil {
		t.Fatal("load returned nil store")
	}
	return s
}

func save(t *testing.T, ps domain.PersistentStore, s *domain.Store) {
	t.Helper()
	if err := ps.Save(context.Background(), s); err != nil {
		t.Fatalf("save: %v", err)
	}
}

func backup(t *testing.T, ps domain.PersistentStore) {
	t.Helper()
	if err := ps.Backup(context.Background()); err != nil {
		t.Fatalf("backup: %v", err)
	}
}

func loadMissingIsEmpty(t *testing.T, open Harness) {
	ps, _ := open(t)
	if s := load(t, ps); s.Len() != 0 {
		t.Fatalf("expected empty store, got %v", s.Names())
	}
}

func loadMalformedIsEmpty(t *testing.T, open Harness) {
	for _, raw := range []string{"", "   ", "{not json", `{"a": {}}`, `[{"pc": {"cpu": {"n": 1}}}]`} {
		ps, docs := open(t)
		if err := docs.Write(context.Background(), generation.Live, []byte(raw)); err != nil {
			t.Fatalf("write raw: %v", err)
		}
		if s := load(t, ps); s.Len() != 0 {
			t.Fatalf("%q: expected empty store, got %v", raw, s.Names())
		}
	}
}

func saveLoadRoundTrip(t *testing.T, open Harness) {
	ps, _ := open(t)
	want := richStore()
	save(t, ps, want)
	got := load(t, ps)
	if diff := cmp.Diff(Snapshot(t, want), Snapshot(t, got)); diff != "" {
		t.Fatalf("round trip mismatch (-want +got):\n%s", diff)
	}

	ps2, _ := open(t)
	save(t, ps2, GamingRig())
	rig := load(t, ps2)
	if diff := cmp.Diff([]string{`gaming rig={"cpu":{"name":"i7-9700K"}}`}, Snapshot(t, rig)); diff != "" {
		t.Fatalf("gaming rig mismatch (-want +got):\n%s", diff)
	}
}

func saveReplaces(t *testing.T, open Harness) {
	ps, _ := open(t)
	save(t, ps, richStore())
	save(t, ps, GamingRig())
	if diff := cmp.Diff([]string{"gaming rig"}, load(t, ps).Names()); diff != "" {
		t.Fatalf("save must replace the document (-want +got):\n%s", diff)
	}
}

func backupWithoutLive(t *testing.T, open Harness) {
	ps, docs := open(t)
	backup(t, ps)
	if _, ok := read(t, docs, generation.Backup); ok {
		t.Fatal("backup created without a live document")
	}
	if _, ok := read(t, docs, generation.Second); ok {
		t.Fatal("second backup created without a live document")
	}
}

func backupRotates(t *testing.T, open Harness) {
	ps, docs := open(t)
	first := domain.NewStore()
	first.AddPC("first", domain.Components{})
	second := domain.NewStore()
	second.AddPC("second", domain.Components{})

	save(t, ps, first)
	backup(t, ps)
	firstBytes, _ := read(t, docs, generation.Live)
	save(t, ps, second)
	backup(t, ps)
	secondBytes, _ := read(t, docs, generation.Live)

	bak, ok := read(t, docs, generation.Backup)
	if !ok {
		t.Fatal("missing first backup")
	}
	bak2, ok := read(t, docs, generation.Second)
	if !ok {
		t.Fatal("missing second backup")
	}
	if diff := cmp.Diff(string(secondBytes), string(bak)); diff != "" {
		t.Fatalf("first backup must hold the second save (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(string(firstBytes), string(bak2)); diff != "" {
		t.Fatalf("second backup must hold the first save (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"second"}, load(t, ps).Names()); diff != "" {
		t.Fatalf("backup changed the live document (-want +got):\n%s", diff)
	}
}

func backupVerbatim(t *testing.T, open Harness) {
	ps, docs := open(t)
	raw := []byte("not a store at all")
	if err := docs.Write(context.Background(), generation.Live, raw); err != nil {
		t.Fatalf("write raw: %v", err)
	}
	backup(t, ps)
	bak, ok := read(t, docs, generation.Backup)
	if !ok || string(bak) != string(raw) {
		t.Fatalf("backup must be a byte copy, got %q (present=%v)", bak, ok)
	}
}

func generationsReported(t *testing.T, open Harness) {
	ps, docs := open(t)
	lister, ok := ps.(generation.Lister)
	if !ok {
		t.Fatalf("%T does not list its generations", ps)
	}
	list := func() []generation.Info {
		t.Helper()
		infos, err := lister.Generations(context.Background())
		if err != nil {
			t.Fatalf("generations: %v", err)
		}
		return infos
	}
	if infos := list(); len(infos) != 0 {
		t.Fatalf("expected no generations, got %+v", infos)
	}

	save(t, ps, GamingRig())
	backup(t, ps)
	save(t, ps, richStore())
	live, _ := read(t, docs, generation.Live)
	bak, _ := read(t, docs, generation.Backup)
	want := []generation.Info{
		{Name: generation.Live, Size: int64(len(live))},
		{Name: generation.Backup, Size: int64(len(bak))},
	}
	if diff := cmp.Diff(want, list(), cmpopts.IgnoreFields(generation.Info{}, "Modified")); diff != "" {
		t.Fatalf("generations mismatch (-want +got):\n%s", diff)
	}

	backup(t, ps)
	var names []string
	for _, info := range list() {
		names = append(names, info.Name)
	}
	if diff := cmp.Diff(generation.Names(), names); diff != "" {
		t.Fatalf("generation order (-want +got):\n%s", diff)
	}
}
