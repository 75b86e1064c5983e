package graph

import (
	"slices"
	"sort"

	"github.com/maruel/natural"
	"go.uber.org/zap"

	"mtalk/talk"
)

// New slides are placed below and to the left of preceding slide, the first
// one ends up at the origin.
var (
	newSlideOffset = talk.Point{X: -50, Y: 250}
	newSlideAnchor = talk.Point{X: 50, Y: -250}
)

// Renamed describes slide which got position of unmatched record by
// adjacency.
type Renamed struct {
	From, To string
}

// Result tells what reconciliation had to do.
type Result struct {
	// FastPath is set when saved records matched talk exactly and were used
	// as is. Position file does not need to be rewritten in this case.
	FastPath bool
	// Renamed slides matched by adjacency in document order.
	Renamed []Renamed
	// Added slides got default placement, in document order.
	Added []string
	// Dropped titles of saved slide records nothing matched, sorted.
	Dropped []string
}

// Reconcile assigns positions to all slides and sub-images of freshly parsed
// talk from saved records. Inconsistent records never fail reconciliation,
// they result in slower matching instead.
func Reconcile(tk *talk.Talk, saved *File, log *zap.Logger) *Result {
	log = log.Named("graph")

	if fastPath(tk, saved.Records) {
		log.Debug("Positions restored", zap.Int("records", saved.Len()))
		return &Result{FastPath: true}
	}

	log.Info("Reconstructing position file", zap.Int("slides", len(tk.Slides)), zap.Int("records", saved.Len()))
	return reconstruct(tk, saved.Records, log)
}

// fastPath succeeds when records list slides and their sub-images exactly in
// document order. Positions are assigned while matching.
func fastPath(tk *talk.Talk, recs []Record) bool {
	next := 0
	for _, sl := range tk.Slides {
		if next >= len(recs) || recs[next].Kind != SlideRecord || recs[next].Title != sl.Title() {
			return false
		}
		sl.Pos = recs[next].Pos()
		next++
		for _, img := range sl.Images {
			if next >= len(recs) || recs[next].Kind != ImageRecord || recs[next].Title != img.Path {
				return false
			}
			img.Pos = recs[next].Pos()
			next++
		}
	}
	// leftover records mean something was deleted
	return next == len(recs)
}

func reconstruct(tk *talk.Talk, recs []Record, log *zap.Logger) *Result {
	res := &Result{}

	// fast path may have assigned part of positions already
	for _, sl := range tk.Slides {
		sl.Pos = talk.Unknown()
		for _, img := range sl.Images {
			img.Pos = talk.Unknown()
		}
	}

	// positions of slides with unchanged titles, wherever they moved
	var unused []int
	for i, rec := range recs {
		if rec.Kind != SlideRecord {
			continue
		}
		sl := tk.Slide(rec.Title)
		if sl == nil {
			unused = append(unused, i)
			continue
		}
		sl.Pos = rec.Pos()
		readImagePositions(sl, recs, i+1)
	}

	// renamed slides keep position when preceding slide matches preceding
	// record, this relies on all exact matches being done
	for i, sl := range tk.Slides {
		if sl.Pos.Known() {
			continue
		}
		for j, pos := range unused {
			if !adjacent(tk, recs, i, pos) {
				continue
			}
			sl.Pos = recs[pos].Pos()
			readImagePositions(sl, recs, pos+1)
			unused = slices.Delete(unused, j, j+1)
			res.Renamed = append(res.Renamed, Renamed{From: recs[pos].Title, To: sl.Title()})
			log.Debug("Slide renamed", zap.String("from", recs[pos].Title), zap.String("to", sl.Title()), zap.Stringer("pos", sl.Pos))
			break
		}
	}

	last := newSlideAnchor
	for _, sl := range tk.Slides {
		if !sl.Pos.Known() {
			sl.Pos = talk.Point{X: last.X + newSlideOffset.X, Y: last.Y + newSlideOffset.Y}
			res.Added = append(res.Added, sl.Title())
			log.Debug("Slide added", zap.String("title", sl.Title()), zap.Stringer("pos", sl.Pos))
		}
		last = sl.Pos
	}

	for _, sl := range tk.Slides {
		for _, img := range sl.Images {
			if !img.Pos.Known() {
				img.Pos = talk.Point{}
			}
		}
	}

	for _, pos := range unused {
		res.Dropped = append(res.Dropped, recs[pos].Title)
	}
	sort.Sort(natural.StringSlice(res.Dropped))
	return res
}

// adjacent reports whether unused slide record at pos fits slide at document
// index i: both are first ones, or slide before i sits where slide record
// before pos says.
func adjacent(tk *talk.Talk, recs []Record, i, pos int) bool {
	if pos == 0 || i == 0 {
		return pos == 0 && i == 0
	}
	last := pos - 1
	for recs[last].Kind != SlideRecord && last > 0 {
		last--
	}
	return tk.Slides[i-1].Pos == recs[last].Pos()
}

// readImagePositions consumes image records following slide record at start.
// Each record goes to the first still unpositioned image with the same path,
// records without such image are skipped.
func readImagePositions(sl *talk.Slide, recs []Record, start int) {
	for ; start < len(recs) && recs[start].Kind == ImageRecord; start++ {
		for _, img := range sl.Images {
			if !img.Pos.Known() && img.Path == recs[start].Title {
				img.Pos = recs[start].Pos()
				break
			}
		}
	}
}

// Sync reconciles talk with position file at path and rewrites the file when
// saved records did not match talk exactly or some of them were malformed.
// When only saving fails both result and error are returned, positions
// assigned to talk are valid in this case.
func Sync(path string, tk *talk.Talk, res Resolution, log *zap.Logger) (*Result, error) {
	saved, err := Load(path, res.Scale, log.Named("graph"))
	if err != nil {
		return nil, err
	}
	result := Reconcile(tk, saved, log)
	if result.FastPath && saved.Skipped == 0 {
		return result, nil
	}
	if err := Save(path, Fill(tk, res.CardEdge), res.Scale); err != nil {
		return result, err
	}
	return result, nil
}
