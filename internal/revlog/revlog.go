// Package revlog turns an exported review log into training items.
//
// The input is CSV with a header naming at least the columns card_id,
// review_time (Unix milliseconds), review_rating (1-4) and review_state
// (0 new, 1 learning, 2 review, 3 relearning). Column order is free.
package revlog

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/sky-flux/flux-ffi/internal/engine"
)

// ErrMissingColumn is returned when the header lacks a required column.
var ErrMissingColumn = errors.New("revlog: missing column")

var requiredColumns = [...]string{"card_id", "review_time", "review_rating", "review_state"}

// Review states as recorded in the log.
const (
	StateNew        = 0
	StateLearning   = 1
	StateReview     = 2
	StateRelearning = 3
)

// Entry is one row of the log.
type Entry struct {
	CardID string
	Time   time.Time
	Rating engine.Rating
	State  int
}

// Options control how review times map onto days.
type Options struct {
	// UTCOffset is the learner's timezone offset.
	UTCOffset time.Duration
	// DayStart is when a new day begins, in local time since midnight.
	DayStart time.Duration
}

// DefaultOptions matches the public FSRS benchmark collection: UTC+8 with
// the day rolling over at 04:00.
func DefaultOptions() Options {
	return Options{UTCOffset: 8 * time.Hour, DayStart: 4 * time.Hour}
}

// Read parses every row of the log.
func Read(r io.Reader) ([]Entry, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true
	cr.ReuseRecord = true

	header, err := cr.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("revlog: empty input")
		}
		return nil, fmt.Errorf("revlog: read header: %w", err)
	}
	cols := make(map[string]int, len(header))
	for i, h := range header {
		cols[strings.ToLower(strings.TrimSpace(h))] = i
	}
	var idx [len(requiredColumns)]int
	for i, name := range requiredColumns {
		c, ok := cols[name]
		if !ok {
			return nil, fmt.Errorf("%w: %s", ErrMissingColumn, name)
		}
		idx[i] = c
	}

	var out []Entry
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			return out, nil
		}
		if err != nil {
			return nil, fmt.Errorf("revlog: %w", err)
		}
		line, _ := cr.FieldPos(0)
		e, err := parseEntry(rec, idx)
		if err != nil {
			return nil, fmt.Errorf("revlog: line %d: %w", line, err)
		}
		out = append(out, e)
	}
}

func parseEntry(rec []string, idx [len(requiredColumns)]int) (Entry, error) {
	field := func(i int) string { return strings.TrimSpace(rec[idx[i]]) }

	ms, err := strconv.ParseInt(field(1), 10, 64)
	if err != nil {
		return Entry{}, fmt.Errorf("review_time: %w", err)
	}
	rating, err := strconv.ParseUint(field(2), 10, 32)
	if err != nil {
		return Entry{}, fmt.Errorf("review_rating: %w", err)
	}
	r, err := engine.RatingFromOrdinal(uint32(rating))
	if err != nil {
		return Entry{}, err
	}
	state, err := strconv.Atoi(field(3))
	if err != nil {
		return Entry{}, fmt.Errorf("review_state: %w", err)
	}
	return Entry{
		CardID: field(0),
		Time:   time.UnixMilli(ms).UTC(),
		Rating: r,
		State:  state,
	}, nil
}

// Card is the time-ordered history of one card.
type Card struct {
	ID      string
	Entries []Entry
}

// Group splits entries by card, in order of first appearance, and sorts
// each card's entries by time. Entries with equal times keep their input
// order.
func Group(entries []Entry) []Card {
	pos := make(map[string]int)
	var cards []Card
	for _, e := range entries {
		i, ok := pos[e.CardID]
		if !ok {
			i = len(cards)
			pos[e.CardID] = i
			cards = append(cards, Card{ID: e.CardID})
		}
		cards[i].Entries = append(cards[i].Entries, e)
	}
	for i := range cards {
		es := cards[i].Entries
		sort.SliceStable(es, func(a, b int) bool { return es[a].Time.Before(es[b].Time) })
	}
	return cards
}

// TrimToLastLearning drops every entry before the card's last block of
// new/learning reviews. A card that was never in learning has no usable
// history and yields nil.
func TrimToLastLearning(entries []Entry) []Entry {
	start := -1
	for i := len(entries) - 1; i >= 0; i-- {
		if isLearning(entries[i].State) {
			start = i
		} else if start != -1 {
			break
		}
	}
	if start == -1 {
		return nil
	}
	return entries[start:]
}

func isLearning(state int) bool {
	return state == StateNew || state == StateLearning
}

// day returns the learner's day number for t.
func (o Options) day(t time.Time) int64 {
	sec := t.Unix() + int64((o.UTCOffset-o.DayStart)/time.Second)
	d := sec / 86400
	if sec < 0 && sec%86400 != 0 {
		d--
	}
	return d
}

// Items expands one card's entries into training items: one per prefix
// of the history that contains at least one cross-day review.
func (o Options) Items(entries []Entry) []engine.Item {
	if len(entries) == 0 {
		return nil
	}
	reviews := make([]engine.Review, len(entries))
	for i, e := range entries {
		var delta uint32
		if i > 0 {
			if d := o.day(e.Time) - o.day(entries[i-1].Time); d > 0 {
				delta = uint32(d)
			}
		}
		reviews[i] = engine.Review{Rating: e.Rating, DeltaT: delta}
	}

	var items []engine.Item
	crossDay := false
	for i := 1; i < len(reviews); i++ {
		if reviews[i].DeltaT > 0 {
			crossDay = true
		}
		if crossDay {
			items = append(items, engine.Item{Reviews: reviews[: i+1 : i+1]})
		}
	}
	return items
}

// Load reads a log and returns the training items of every card.
func Load(r io.Reader, opts Options) ([]engine.Item, error) {
	entries, err := Read(r)
	if err != nil {
		return nil, err
	}
	var items []engine.Item
	for _, c := range Group(entries) {
		items = append(items, opts.Items(TrimToLastLearning(c.Entries))...)
	}
	return items, nil
}
