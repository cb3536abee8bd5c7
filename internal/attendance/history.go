package attendance

import (
	"context"

	"meeting-attendance/internal/storage"
)

// History is one person's attendance across meetings. A channel left out of
// the lookup is null, a channel without attendance is an empty list.
type History struct {
	Email    string                         `json:"email"`
	Virtual  []storage.VirtualHistoryEntry  `json:"virtual"`
	Physical []storage.PhysicalHistoryEntry `json:"physical"`
}

// History lists the attendance of address on channel, or on both channels
// when channel is empty. An address with no attendance yields empty lists.
func (e *Engine) History(ctx context.Context, address string, channel storage.Channel) (*History, error) {
	address, err := normalizeEmail(e.validate, address)
	if err != nil {
		return nil, err
	}
	if channel != "" && !channel.Valid() {
		return nil, ErrInvalidChannel
	}

	h := &History{Email: address}
	if channel == "" || channel == storage.ChannelVirtual {
		if h.Virtual, err = e.store.ListAttendanceByEmail(ctx, address, storage.ChannelVirtual); err != nil {
			return nil, err
		}
	}
	if channel == "" || channel == storage.ChannelPhysical {
		if h.Physical, err = e.store.ListScansByEmail(ctx, address); err != nil {
			return nil, err
		}
	}
	return h, nil
}
