package imports

import (
	"log"
	"sort"

	"thermlink/internal/geometry"
	"thermlink/internal/model"
	"thermlink/internal/reconcile"

	"github.com/dhconnelly/rtreego"
)

// boxPadding widens every rectangle so flat faces get a non-zero extent,
// which rtreego requires.
const boxPadding = 1e-9

// FaceSpatial represents a face with its bounds for R-tree indexing
type FaceSpatial struct {
	Face *reconcile.Face
	Box  geometry.Box
	rect rtreego.Rect
}

// Bounds implements the rtreego.Spatial interface
func (f *FaceSpatial) Bounds() rtreego.Rect {
	return f.rect
}

func boxRect(b geometry.Box) (rtreego.Rect, error) {
	return rtreego.NewRect(
		rtreego.Point{b.Min.X - boxPadding, b.Min.Y - boxPadding, b.Min.Z - boxPadding},
		[]float64{
			b.Max.X - b.Min.X + 2*boxPadding,
			b.Max.Y - b.Min.Y + 2*boxPadding,
			b.Max.Z - b.Min.Z + 2*boxPadding,
		},
	)
}

// index builds the 3D face index of an import
func (s *ImportService) index(imp *model.Import) {
	tree := rtreego.NewTree(3, 25, 50) // 3D index with min 25, max 50 entries per node

	if imp.Result != nil {
		for _, face := range imp.Result.Faces {
			box := face.Bound()
			rect, err := boxRect(box)
			if err != nil {
				log.Printf("Face %d of import %s not indexed: %v", face.Index, imp.ID, err)
				continue
			}
			tree.Insert(&FaceSpatial{Face: face, Box: box, rect: rect})
		}
	}

	s.indexMutex.Lock()
	s.indexes[imp.ID] = tree
	s.indexMutex.Unlock()
}

// FacesInBounds returns the faces of an import whose bounding boxes meet
// the query box, in input order.
func (s *ImportService) FacesInBounds(id string, query geometry.Box) ([]*reconcile.Face, error) {
	if _, err := s.Get(id); err != nil {
		return nil, err
	}

	rect, err := boxRect(query)
	if err != nil {
		return nil, err
	}

	s.indexMutex.RLock()
	tree := s.indexes[id]
	s.indexMutex.RUnlock()
	if tree == nil {
		return nil, ErrNotFound
	}

	var result []*reconcile.Face
	for _, item := range tree.SearchIntersect(rect) {
		fs := item.(*FaceSpatial)
		// the padded rectangles can over-match by boxPadding
		if fs.Box.Intersects(query) {
			result = append(result, fs.Face)
		}
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].Index < result[j].Index
	})
	return result, nil
}
