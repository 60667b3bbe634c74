package coordinator

import (
	"context"
	"sync"

	"github.com/boomslang777/ram2/internal/cache"
	"github.com/boomslang777/ram2/internal/journal"
	"github.com/boomslang777/ram2/internal/models"
)

// SettingsField names one editable settings field.
type SettingsField string

const (
	FieldTradingEnabled       SettingsField = "trading_enabled"
	FieldSPYQuantity          SettingsField = "spy_quantity"
	FieldMESQuantity          SettingsField = "mes_quantity"
	FieldDTE                  SettingsField = "dte"
	FieldOTMStrikes           SettingsField = "otm_strikes"
	FieldCallStrikeSelection  SettingsField = "call_strike_selection"
	FieldPutStrikeSelection   SettingsField = "put_strike_selection"
	FieldAutoSquareOffEnabled SettingsField = "auto_square_off_enabled"
	FieldAutoSquareOffTime    SettingsField = "auto_square_off_time"
)

var settingsFields = []SettingsField{
	FieldTradingEnabled,
	FieldSPYQuantity,
	FieldMESQuantity,
	FieldDTE,
	FieldOTMStrikes,
	FieldCallStrikeSelection,
	FieldPutStrikeSelection,
	FieldAutoSquareOffEnabled,
	FieldAutoSquareOffTime,
}

func copyField(dst *models.Settings, src models.Settings, f SettingsField) {
	switch f {
	case FieldTradingEnabled:
		dst.TradingEnabled = src.TradingEnabled
	case FieldSPYQuantity:
		dst.SPYQuantity = src.SPYQuantity
	case FieldMESQuantity:
		dst.MESQuantity = src.MESQuantity
	case FieldDTE:
		dst.DTE = src.DTE
	case FieldOTMStrikes:
		dst.OTMStrikes = src.OTMStrikes
	case FieldCallStrikeSelection:
		dst.CallStrikeSelection = src.CallStrikeSelection
	case FieldPutStrikeSelection:
		dst.PutStrikeSelection = src.PutStrikeSelection
	case FieldAutoSquareOffEnabled:
		dst.AutoSquareOffEnabled = src.AutoSquareOffEnabled
	case FieldAutoSquareOffTime:
		dst.AutoSquareOffTime = src.AutoSquareOffTime
	}
}

// SettingsEditor holds the locally editable settings mirror. Edits apply to
// the mirror immediately so the input never visually reverts while the round
// trip is pending; the authoritative server copy overwrites a field only when
// no edit for that field is in flight, tracked by a per-field generation
// counter.
type SettingsEditor struct {
	co *Coordinator

	mu        sync.Mutex
	local     models.Settings
	hasLocal  bool
	gen       map[SettingsField]uint64 // bumped on every local edit
	confirmed map[SettingsField]uint64 // generation the server has acknowledged
}

// NewSettingsEditor creates an editor bound to the coordinator's cache and
// client.
func NewSettingsEditor(co *Coordinator) *SettingsEditor {
	e := &SettingsEditor{
		co:        co,
		gen:       make(map[SettingsField]uint64),
		confirmed: make(map[SettingsField]uint64),
	}
	// Authoritative settings fetched through the pull path reconcile into the
	// mirror instead of overwriting it blindly.
	co.cache.Subscribe(func(key cache.Key) {
		if key != cache.KeySettings {
			return
		}
		if s, ok := co.cache.Settings(); ok {
			e.reconcile(s)
		}
	})
	return e
}

// Current returns the editable settings view: the local mirror when edits
// exist, otherwise the cached authoritative record.
func (e *SettingsEditor) Current() (models.Settings, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.hasLocal {
		return e.local, true
	}
	return e.co.cache.Settings()
}

// Update applies mutate to the local mirror, persists the whole record, and
// reconciles the server's copy. The mirror keeps the edited values visible
// while the round trip is pending; on failure the mirror is left in place for
// correction and the error is returned.
func (e *SettingsEditor) Update(ctx context.Context, mutate func(*models.Settings)) error {
	e.mu.Lock()
	if !e.hasLocal {
		if s, ok := e.co.cache.Settings(); ok {
			e.local = s
		} else {
			e.local = models.DefaultSettings()
		}
		e.hasLocal = true
	}
	before := e.local
	mutate(&e.local)
	for _, f := range settingsFields {
		if !fieldEqual(before, e.local, f) {
			e.gen[f]++
		}
	}
	snapshot := e.local
	sent := make(map[SettingsField]uint64, len(e.gen))
	for f, g := range e.gen {
		sent[f] = g
	}
	e.mu.Unlock()

	stored, err := e.co.client.UpdateSettings(ctx, snapshot)
	e.co.record(ctx, journal.Entry{Operation: "settings"}, err)
	if err != nil {
		return err
	}

	e.mu.Lock()
	for _, f := range settingsFields {
		if e.gen[f] == sent[f] {
			e.confirmed[f] = sent[f]
			copyField(&e.local, stored, f)
		}
	}
	e.mu.Unlock()

	e.co.cache.Invalidate(cache.KeySettings)
	return nil
}

// reconcile folds an authoritative record into the mirror. A field with an
// edit in flight (generation ahead of the confirmed one) keeps its local
// value to avoid visible flicker; everything else takes the server's value.
func (e *SettingsEditor) reconcile(server models.Settings) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if !e.hasLocal {
		return
	}
	for _, f := range settingsFields {
		if e.gen[f] == e.confirmed[f] {
			copyField(&e.local, server, f)
		}
	}
}

func fieldEqual(a, b models.Settings, f SettingsField) bool {
	var av, bv models.Settings
	copyField(&av, a, f)
	copyField(&bv, b, f)
	return av == bv
}
