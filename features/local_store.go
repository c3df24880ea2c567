// Package features owns the collection of locally added service request
// points: loading it from durable storage, adding points through the map
// display surface, and exporting it.
package features

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"

	"go.uber.org/multierr"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/vijayrajbudala/GIS-Application/arcgis"
	"github.com/vijayrajbudala/GIS-Application/display"
	"github.com/vijayrajbudala/GIS-Application/schema"
	"github.com/vijayrajbudala/GIS-Application/store"
)

// StorageKey is the key the collection is persisted under.
const StorageKey = "localServiceRequestsJSON"

var (
	ErrEmptyStatus     = errors.New("please choose a status first")
	ErrUnknownStatus   = errors.New("status is not one of the layer's categories")
	ErrDuplicateID     = errors.New("assigned id is already in use")
	ErrNothingToExport = errors.New("no local features to download")
	ErrNotReady        = errors.New("feature store has not finished initializing")
	ErrRenderFailed    = errors.New("render failed")
	ErrPersistFailed   = errors.New("persist failed")
)

// LayerFetcher supplies layer metadata; *arcgis.Client satisfies it.
type LayerFetcher interface {
	FetchLayer(ctx context.Context, layerURL string) (*arcgis.Layer, error)
}

// Options wires a LocalStore to its collaborators.
type Options struct {
	Storage  store.Store
	Surface  display.Surface
	Schema   LayerFetcher
	LayerURL string
	Logger   *zap.Logger
}

// LocalStore is the authoritative in-memory list of points, written through
// to Storage after every mutation. Every operation holds mu for its whole
// duration, external calls included, so concurrent callers are applied one
// at a time in arrival order.
type LocalStore struct {
	storage  store.Store
	surface  display.Surface
	schema   LayerFetcher
	layerURL string
	log      *zap.Logger

	mu            sync.Mutex
	records       []PointRecord
	nextID        int64
	addMode       bool
	options       []schema.Option
	initialized   bool
	optionsLoaded bool
}

func NewLocalStore(opts Options) *LocalStore {
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}
	return &LocalStore{
		storage:  opts.Storage,
		surface:  opts.Surface,
		schema:   opts.Schema,
		layerURL: opts.LayerURL,
		log:      log,
		nextID:   1,
	}
}

// Start loads the status options and the saved collection concurrently and
// returns once both are done. Only a storage read failure is returned.
func (s *LocalStore) Start(ctx context.Context) error {
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		s.LoadStatusOptions(gctx)
		return nil
	})
	g.Go(func() error {
		return s.Initialize(gctx)
	})
	return g.Wait()
}

// Initialize replaces the collection with what is saved under StorageKey.
// Absent or malformed data leaves the collection empty.
func (s *LocalStore) Initialize(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	raw, ok, err := s.storage.Get(StorageKey)
	if err != nil {
		return fmt.Errorf("read %s: %w", StorageKey, err)
	}
	s.initialized = true
	s.records = nil
	s.nextID = 1

	if !ok || strings.TrimSpace(raw) == "" {
		s.log.Info("no saved local features found", zap.String("key", StorageKey))
		return nil
	}

	records, err := decodeRecords(raw)
	if err != nil {
		s.log.Warn("ignoring malformed saved features", zap.String("key", StorageKey), zap.Error(err))
		return nil
	}
	s.records = records
	s.nextID = nextIDFor(records)

	if len(records) > 0 {
		graphics := make([]display.Graphic, len(records))
		for i, r := range records {
			graphics[i] = r.graphic()
		}
		if err := s.surface.RenderExisting(ctx, graphics); err != nil {
			s.log.Warn("failed to render saved features", zap.Int("count", len(graphics)), zap.Error(err))
		} else {
			s.log.Info("rendered saved features", zap.Int("count", len(graphics)))
		}
	}
	return nil
}

// LoadStatusOptions fetches the status categories from the remote layer.
// A failed fetch or a layer without a unique value renderer yields an empty list.
func (s *LocalStore) LoadStatusOptions(ctx context.Context) []schema.Option {
	var options []schema.Option
	if s.schema == nil {
		s.log.Warn("no schema source configured")
	} else if layer, err := s.schema.FetchLayer(ctx, s.layerURL); err != nil {
		s.log.Warn("failed to fetch layer metadata", zap.String("url", s.layerURL), zap.Error(err))
	} else if opts, ok := schema.FromLayer(layer); !ok {
		s.log.Warn("no unique value renderer found on layer", zap.String("url", s.layerURL))
	} else {
		options = opts
		s.log.Info("loaded status options", zap.Int("count", len(opts)))
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.options = options
	s.optionsLoaded = true
	return append([]schema.Option(nil), options...)
}

func (s *LocalStore) BeginAddMode() {
	s.mu.Lock()
	s.addMode = true
	s.mu.Unlock()
}

func (s *LocalStore) EndAddMode() {
	s.mu.Lock()
	s.addMode = false
	s.mu.Unlock()
}

// ToggleAddMode flips add mode and returns the new state.
func (s *LocalStore) ToggleAddMode() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.addMode = !s.addMode
	return s.addMode
}

func (s *LocalStore) AddMode() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.addMode
}

// AddPoint records a point clicked at click with the given status.
// When add mode is off it does nothing and reports added=false.
// Either the point is both rendered and persisted, or neither.
func (s *LocalStore) AddPoint(ctx context.Context, status string, click display.Point) (rec PointRecord, added bool, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.initialized || !s.optionsLoaded {
		return PointRecord{}, false, ErrNotReady
	}
	if !s.addMode {
		return PointRecord{}, false, nil
	}
	if strings.TrimSpace(status) == "" {
		return PointRecord{}, false, ErrEmptyStatus
	}
	if len(s.options) > 0 && !schema.Contains(s.options, status) {
		return PointRecord{}, false, fmt.Errorf("%w: %q", ErrUnknownStatus, status)
	}

	tentative := s.nextID
	id, ok, err := s.surface.RenderNew(ctx, display.Graphic{
		Geometry:   click,
		Attributes: display.Attributes{ObjectID: tentative, Status: status},
	})
	if err != nil {
		s.log.Error("failed to add local feature", zap.Error(err))
		return PointRecord{}, false, fmt.Errorf("%w: %w", ErrRenderFailed, err)
	}
	if !ok || id <= 0 {
		s.log.Warn("no object id returned by display surface; using local counter", zap.Int64("id", tentative))
		id = tentative
	}
	if s.hasID(id) {
		s.log.Error("display surface assigned an id already in the collection", zap.Int64("id", id))
		err := fmt.Errorf("%w: %d", ErrDuplicateID, id)
		return PointRecord{}, false, multierr.Append(err, s.retract(ctx, id, ok))
	}

	rec = PointRecord{ID: id, Status: status, Geometry: click}
	s.records = append(s.records, rec)
	if err := s.persist(); err != nil {
		s.records = s.records[:len(s.records)-1]
		s.log.Error("failed to save local features; point discarded", zap.Int64("id", id), zap.Error(err))
		err = fmt.Errorf("%w: %w", ErrPersistFailed, err)
		return PointRecord{}, false, multierr.Append(err, s.retract(ctx, id, ok))
	}

	if id+1 > s.nextID {
		s.nextID = id + 1
	}
	s.log.Info("feature added locally", zap.Int64("id", id), zap.String("status", status))
	return rec, true, nil
}

// Reset deletes the saved collection and empties the in-memory one.
// Graphics already on the display surface are left in place.
// It returns how many records were dropped.
func (s *LocalStore) Reset() (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.storage.Delete(StorageKey); err != nil {
		return 0, fmt.Errorf("delete %s: %w", StorageKey, err)
	}
	n := len(s.records)
	s.records = nil
	s.nextID = 1
	s.log.Info("local features reset", zap.Int("dropped", n))
	return n, nil
}

// Records returns a copy of the collection in insertion order.
func (s *LocalStore) Records() []PointRecord {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]PointRecord(nil), s.records...)
}

// NextID is the id the next point will be offered to the surface with.
func (s *LocalStore) NextID() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.nextID
}

func (s *LocalStore) StatusOptions() []schema.Option {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]schema.Option(nil), s.options...)
}

// Ready reports whether both startup steps have completed.
func (s *LocalStore) Ready() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.initialized && s.optionsLoaded
}

func (s *LocalStore) hasID(id int64) bool {
	for _, r := range s.records {
		if r.ID == id {
			return true
		}
	}
	return false
}

// persist overwrites the saved blob with the full collection.
func (s *LocalStore) persist() error {
	b, err := json.Marshal(s.records)
	if err != nil {
		return err
	}
	return s.storage.Put(StorageKey, string(b))
}

// retract takes back a graphic that was rendered but will not be kept.
// Surfaces that cannot retract, or ids the surface never confirmed, are left alone.
func (s *LocalStore) retract(ctx context.Context, id int64, confirmed bool) error {
	r, ok := s.surface.(display.Retractor)
	if !ok || !confirmed {
		return nil
	}
	if err := r.Retract(ctx, id); err != nil {
		s.log.Warn("failed to retract graphic", zap.Int64("id", id), zap.Error(err))
		return fmt.Errorf("retract %d: %w", id, err)
	}
	return nil
}
