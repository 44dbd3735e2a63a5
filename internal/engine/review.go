package engine

// Review is a single review observation: the rating given and the number
// of whole days since the previous review (0 for the first review or a
// same-day repeat).
type Review struct {
	Rating Rating `json:"rating" yaml:"rating"`
	DeltaT uint32 `json:"delta_t" yaml:"delta_t"`
}

// Item is an ordered review history for one card.
//
// When used for training, the last review is the prediction target and
// the reviews before it build up the memory state being evaluated.
type Item struct {
	Reviews []Review `json:"reviews" yaml:"reviews"`
}

// Validate reports ErrInvalidRating for the first review with a rating
// outside Again..Easy.
func (it Item) Validate() error {
	for _, r := range it.Reviews {
		if _, err := RatingFromOrdinal(uint32(r.Rating)); err != nil {
			return err
		}
	}
	return nil
}

// Target returns the last review of the item.
func (it Item) Target() (Review, bool) {
	if len(it.Reviews) == 0 {
		return Review{}, false
	}
	return it.Reviews[len(it.Reviews)-1], true
}

// History returns every review before the target.
func (it Item) History() []Review {
	if len(it.Reviews) == 0 {
		return nil
	}
	return it.Reviews[:len(it.Reviews)-1]
}

// Trainable reports whether the item can contribute to the training loss:
// it has at least one prior review and its target is a cross-day review.
func (it Item) Trainable() bool {
	t, ok := it.Target()
	return ok && len(it.Reviews) >= 2 && t.DeltaT >= 1
}
