package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/vuchungbt/hotel-booking-sub000/internal/domain"
)

type hotelDirectory interface {
	GetHotel(ctx context.Context, id int64) (*domain.Hotel, error)
	GetRoomType(ctx context.Context, id int64) (*domain.RoomType, error)
}

// HotelDirectory is a cache-aside decorator over hotel/room-type lookups.
// Commission totals are never served from here; revenue writes go straight
// to the repository.
type HotelDirectory struct {
	primary hotelDirectory
	client  *redis.Client
	ttl     time.Duration
}

func NewHotelDirectory(primary hotelDirectory, client *redis.Client, ttl time.Duration) *HotelDirectory {
	return &HotelDirectory{primary: primary, client: client, ttl: ttl}
}

func (d *HotelDirectory) GetHotel(ctx context.Context, id int64) (*domain.Hotel, error) {
	key := fmt.Sprintf("hotel:%d", id)

	cached, err := d.client.Get(ctx, key).Bytes()
	if err == nil {
		var h domain.Hotel
		if err := json.Unmarshal(cached, &h); err == nil {
			return &h, nil
		}
	}

	h, err := d.primary.GetHotel(ctx, id)
	if err != nil {
		return nil, err
	}

	if data, err := json.Marshal(h); err == nil {
		d.client.Set(ctx, key, data, d.ttl)
	}
	return h, nil
}

func (d *HotelDirectory) GetRoomType(ctx context.Context, id int64) (*domain.RoomType, error) {
	key := fmt.Sprintf("room_type:%d", id)

	cached, err := d.client.Get(ctx, key).Bytes()
	if err == nil {
		var rt domain.RoomType
		if err := json.Unmarshal(cached, &rt); err == nil {
			return &rt, nil
		}
	}

	rt, err := d.primary.GetRoomType(ctx, id)
	if err != nil {
		return nil, err
	}

	if data, err := json.Marshal(rt); err == nil {
		d.client.Set(ctx, key, data, d.ttl)
	}
	return rt, nil
}
