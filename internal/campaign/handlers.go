package campaign

import (
	"encoding/json"
	"net/http"
	"os"
	"path/filepath"
	"sort"
)

// summary is the per-campaign entry returned by GET /campaigns.
type summary struct {
	ID           string         `json:"id"`
	Name         string         `json:"name"`
	SessionCount int            `json:"sessionCount,omitempty"`
	HasCharacter bool           `json:"hasCharacter"`
	Character    *charSummary   `json:"character,omitempty"`
	EntityCounts map[string]int `json:"entityCounts,omitempty"`
}

type charSummary struct {
	Name  string `json:"name"`
	Race  string `json:"race"`
	Class string `json:"class"`
	Level int    `json:"level"`
}

// detail is the payload returned by GET /campaigns/{id}.
type detail struct {
	ID               string              `json:"id"`
	CampaignOverview *Overview           `json:"campaign_overview,omitempty"`
	Character        *Character          `json:"character,omitempty"`
	NPCs             map[string]NPC      `json:"npcs,omitempty"`
	Locations        map[string]Location `json:"locations,omitempty"`
	Plots            map[string]Plot     `json:"plots,omitempty"`
}

// Handler serves the thin campaign HTTP surface: list, detail, and an
// import stub. root holds one subdirectory per campaign, each a Store.
type Handler struct {
	root string
}

// NewHandler creates a Handler rooted at root, the directory containing
// one subdirectory per campaign. root is created if it does not exist.
func NewHandler(root string) (*Handler, error) {
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, err
	}
	return &Handler{root: root}, nil
}

// Routes registers this handler's endpoints on mux.
func (h *Handler) Routes(mux *http.ServeMux) {
	mux.HandleFunc("GET /campaigns", h.List)
	mux.HandleFunc("GET /campaigns/{id}", h.Detail)
	mux.HandleFunc("POST /campaigns/import", h.Import)
}

// List handles GET /campaigns: every campaign subdirectory with whatever
// overview, character, and entity-count information is available.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	entries, err := os.ReadDir(h.root)
	if err != nil {
		writeJSONError(w, http.StatusInternalServerError, err)
		return
	}

	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)

	out := make([]summary, 0, len(names))
	for _, name := range names {
		out = append(out, h.summarize(name))
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *Handler) summarize(id string) summary {
	s := summary{ID: id, Name: id}

	store, err := Open(filepath.Join(h.root, id))
	if err != nil {
		return s
	}
	if ov, err := store.Overview(); err == nil {
		if ov.CampaignName != "" {
			s.Name = ov.CampaignName
		}
		s.SessionCount = ov.SessionCount
	}
	if c, err := store.Character(); err == nil && c.Name != "" {
		s.HasCharacter = true
		s.Character = &charSummary{Name: c.Name, Race: c.Race, Class: c.Class, Level: c.Level}
	}

	counts := map[string]int{}
	if npcs, err := store.NPCs(); err == nil && len(npcs) > 0 {
		counts["npcs"] = len(npcs)
	}
	if locs, err := store.Locations(); err == nil && len(locs) > 0 {
		counts["locations"] = len(locs)
	}
	if plots, err := store.Plots(); err == nil && len(plots) > 0 {
		counts["plots"] = len(plots)
	}
	if len(counts) > 0 {
		s.EntityCounts = counts
	}
	return s
}

// Detail handles GET /campaigns/{id}: every JSON file in the campaign
// directory, assembled into one payload.
func (h *Handler) Detail(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	store, err := Open(filepath.Join(h.root, id))
	if err != nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "campaign not found"})
		return
	}

	d := detail{ID: id}
	if ov, err := store.Overview(); err == nil {
		d.CampaignOverview = &ov
	}
	if c, err := store.Character(); err == nil {
		d.Character = &c
	}
	if npcs, err := store.NPCs(); err == nil {
		d.NPCs = npcs
	}
	if locs, err := store.Locations(); err == nil {
		d.Locations = locs
	}
	if plots, err := store.Plots(); err == nil {
		d.Plots = plots
	}
	writeJSON(w, http.StatusOK, d)
}

// Import handles POST /campaigns/import. PDF-based campaign import is a
// stub: it accepts the request and reports it as queued without running
// any extraction.
func (h *Handler) Import(w http.ResponseWriter, r *http.Request) {
	filename := r.FormValue("filename")
	writeJSON(w, http.StatusAccepted, map[string]string{
		"status":   "accepted",
		"filename": filename,
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeJSONError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, map[string]string{"error": err.Error()})
}
