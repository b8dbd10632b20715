package board

import (
	"sort"

	"github.com/PabloGalante/farum-board/internal/domain"
)

// sortFeed returns copies of msgs ordered newest first. Equal timestamps
// fall back to descending ID so repeated refreshes render identically.
func sortFeed(msgs []*domain.Message) []*domain.Message {
	out := make([]*domain.Message, 0, len(msgs))
	for _, m := range msgs {
		if m == nil {
			continue
		}
		out = append(out, m.Clone())
	}

	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID > out[j].ID
	})
	return out
}
