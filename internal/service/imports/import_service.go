package imports

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"sort"
	"sync"
	"time"

	"thermlink/internal/importer"
	"thermlink/internal/model"
	pg "thermlink/internal/postgres"
	"thermlink/internal/reconcile"
	redis_client "thermlink/internal/redis"
	"thermlink/internal/service/storage"
	"thermlink/internal/therm"
	"thermlink/internal/util"

	"github.com/cespare/xxhash/v2"
	"github.com/dhconnelly/rtreego"
	"github.com/paulmach/orb"
	"gorm.io/gorm"
)

const ImportRedisKey = "therm-import"

var (
	ErrNotFound   = errors.New("import not found")
	ErrEmptyInput = errors.New("empty THERM document")
)

// Settings identifies the scene an import was reconciled into. It is part
// of the cache key, so the same file imported into a different scene is
// reconciled again.
type Settings struct {
	UnitSystem    string
	Tolerance     float64
	Origin        string
	FailurePolicy reconcile.FailurePolicy
	CacheTTL      time.Duration
}

// ImportService runs THERM imports and keeps their results
type ImportService struct {
	importer *importer.Importer
	settings Settings
	storage  storage.Storage[string, *model.Import]

	indexes    map[string]*rtreego.Rtree // face index per import
	indexMutex sync.RWMutex
}

func NewImportService(imp *importer.Importer, settings Settings) *ImportService {
	return &ImportService{
		importer: imp,
		settings: settings,
		storage:  storage.NewMemoryStorage[string, *model.Import](),
		indexes:  make(map[string]*rtreego.Rtree),
	}
}

// Import runs a THERM import over the contents of r.
func (s *ImportService) Import(ctx context.Context, name string, r io.Reader) (*model.Import, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read upload: %w", err)
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, ErrEmptyInput
	}

	hash := s.contentHash(data)
	if cached := s.loadFromCache(ctx, hash); cached != nil {
		log.Printf("Import cache hit for %s (%s)", name, hash)
		s.adoptCached(cached)
		return cached, nil
	}

	result, _, err := s.importer.Import(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}

	now := time.Now()
	imp := &model.Import{
		ID:          util.NewImportID(),
		SourceName:  name,
		ContentHash: hash,
		UnitSystem:  s.settings.UnitSystem,
		Result:      result,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	s.storage.Set(imp.ID, imp)
	s.index(imp)
	s.saveToCache(ctx, imp)

	log.Printf("Stored import %s: %d faces from %s", imp.ID, len(result.Faces), name)
	return imp, nil
}

// Get returns an import from memory, falling back to PostgreSQL.
func (s *ImportService) Get(id string) (*model.Import, error) {
	if imp, ok := s.storage.Get(id); ok {
		return imp, nil
	}

	db := pg.GetDB()
	if db == nil {
		return nil, ErrNotFound
	}

	var row model.ImportPG
	if err := db.First(&row, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	imp, err := model.ImportFromPG(&row)
	if err != nil {
		return nil, err
	}
	s.storage.Load(imp.ID, imp)
	s.index(imp)
	return imp, nil
}

// List returns the imports held in memory, oldest first.
func (s *ImportService) List() []*model.Import {
	imports := s.storage.Values()
	sort.SliceStable(imports, func(i, j int) bool {
		return imports[i].CreatedAt.Before(imports[j].CreatedAt)
	})
	return imports
}

// Delete forgets an import everywhere it is stored.
func (s *ImportService) Delete(ctx context.Context, id string) error {
	imp, err := s.Get(id)
	if err != nil {
		return err
	}

	s.storage.Delete(id)

	s.indexMutex.Lock()
	delete(s.indexes, id)
	s.indexMutex.Unlock()

	if db := pg.GetDB(); db != nil {
		if err := db.Delete(&model.ImportPG{}, "id = ?", id).Error; err != nil {
			return fmt.Errorf("delete import %s from PostgreSQL: %w", id, err)
		}
	}
	if redis_client.Enabled() {
		if err := redis_client.Delete(ctx, s.cacheKey(imp.ContentHash)); err != nil {
			log.Printf("Error removing import %s from Redis: %v", id, err)
		}
	}
	return nil
}

// PolygonsAt returns the source polygons containing the THERM-frame point
// (x, y), in millimeters.
func (s *ImportService) PolygonsAt(id string, x, y float64) ([]therm.PolygonRecord, error) {
	imp, err := s.Get(id)
	if err != nil {
		return nil, err
	}

	var result []therm.PolygonRecord
	for _, rec := range imp.Result.Polygons {
		if util.PointInPolygon(rec.Polygon(), orb.Point{x, y}) {
			result = append(result, rec)
		}
	}
	return result, nil
}

// SaveDirtyToPG saves new and changed imports to PostgreSQL. It does
// nothing when no database is configured.
func (s *ImportService) SaveDirtyToPG() error {
	db := pg.GetDB()
	if db == nil {
		return nil
	}

	dirty := s.storage.GetDirty()
	if len(dirty) == 0 {
		return nil
	}

	keys := make([]string, 0, len(dirty))
	err := db.Transaction(func(tx *gorm.DB) error {
		for id, imp := range dirty {
			row, err := imp.ToPG()
			if err != nil {
				return err
			}
			if err := tx.Save(row).Error; err != nil {
				return err
			}
			keys = append(keys, id)
		}
		return nil
	})
	if err != nil {
		return err
	}

	// Clear flags only after successful save
	s.storage.ClearDirty(keys)

	log.Printf("Saved %d imports to PostgreSQL", len(keys))
	return nil
}

// IsInputError reports whether err was caused by the THERM document itself
// rather than by the service.
func IsInputError(err error) bool {
	var parseErr *therm.ParseError
	var polygonErr *reconcile.PolygonError
	return errors.As(err, &parseErr) ||
		errors.As(err, &polygonErr) ||
		errors.Is(err, reconcile.ErrNoFaces) ||
		errors.Is(err, ErrEmptyInput)
}

func (s *ImportService) contentHash(data []byte) string {
	d := xxhash.New()
	d.Write(data)
	fmt.Fprintf(d, "|%s|%g|%s|%s", s.settings.UnitSystem, s.settings.Tolerance, s.settings.Origin, s.settings.FailurePolicy)
	return fmt.Sprintf("%016x", d.Sum64())
}

func (s *ImportService) cacheKey(hash string) string {
	return fmt.Sprintf("%s:%s", ImportRedisKey, hash)
}

func (s *ImportService) loadFromCache(ctx context.Context, hash string) *model.Import {
	if !redis_client.Enabled() {
		return nil
	}

	data, err := redis_client.Get(ctx, s.cacheKey(hash))
	if err != nil {
		if !redis_client.IsMiss(err) {
			log.Printf("Error reading import cache: %v", err)
		}
		return nil
	}

	imp := &model.Import{}
	if err := json.Unmarshal([]byte(data), imp); err != nil {
		log.Printf("Discarding unreadable cached import %s: %v", hash, err)
		return nil
	}
	return imp
}

// adoptCached stores an import read back from Redis. With a database
// configured it is marked dirty, since the process that cached it may have
// stopped before its flush.
func (s *ImportService) adoptCached(imp *model.Import) {
	if pg.GetDB() != nil {
		s.storage.Set(imp.ID, imp)
	} else {
		s.storage.Load(imp.ID, imp)
	}
	s.index(imp)
}

func (s *ImportService) saveToCache(ctx context.Context, imp *model.Import) {
	if !redis_client.Enabled() {
		return
	}

	data, err := json.Marshal(imp)
	if err != nil {
		log.Printf("Error encoding import %s for cache: %v", imp.ID, err)
		return
	}
	if err := redis_client.Set(ctx, s.cacheKey(imp.ContentHash), data, s.settings.CacheTTL); err != nil {
		log.Printf("Error caching import %s: %v", imp.ID, err)
	}
}
