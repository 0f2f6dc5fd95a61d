package memory

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"rental-booking/internal/data/entity"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Seed holds the collaborator read models a memory store starts with.
type Seed struct {
	Properties []struct {
		ID              uuid.UUID `json:"id"`
		OwnerID         uuid.UUID `json:"owner_id"`
		BasePrice       float64   `json:"base_price"`
		CleaningFee     float64   `json:"cleaning_fee"`
		SecurityDeposit float64   `json:"security_deposit"`
		ExtraGuestFee   float64   `json:"extra_guest_fee"`
		MaxGuests       int       `json:"max_guests"`
		MinimumStay     int       `json:"minimum_stay"`
		CommissionRate  float64   `json:"commission_rate"`
	} `json:"properties"`
	Coupons []struct {
		ID            uuid.UUID `json:"id"`
		Code          string    `json:"code"`
		DiscountType  string    `json:"discount_type"`
		DiscountValue float64   `json:"discount_value"`
		MaxDiscount   float64   `json:"max_discount"`
		MinimumAmount float64   `json:"minimum_amount"`
		UsageLimit    int       `json:"usage_limit"`
		ValidFrom     time.Time `json:"valid_from"`
		ValidUntil    time.Time `json:"valid_until"`
	} `json:"coupons"`
	PointsSlots []struct {
		MinAmount         float64 `json:"min_amount"`
		MaxAmount         float64 `json:"max_amount"`
		PointsPerThousand float64 `json:"points_per_thousand"`
	} `json:"points_slots"`
	PointsSettings *struct {
		PointsPerTaka       float64 `json:"points_per_taka"`
		MinPointsToRedeem   int64   `json:"min_points_to_redeem"`
		MaxPointsPerBooking int64   `json:"max_points_per_booking"`
	} `json:"points_settings"`
	Contacts map[uuid.UUID]string `json:"contacts"`
}

// LoadSeed reads a JSON seed file into the store.
func (s *Store) LoadSeed(path string) error {
	body, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read seed %s: %w", path, err)
	}

	var seed Seed
	if err := json.Unmarshal(body, &seed); err != nil {
		return fmt.Errorf("decode seed %s: %w", path, err)
	}

	for _, p := range seed.Properties {
		s.AddProperty(&entity.Property{
			ID:              p.ID,
			OwnerID:         p.OwnerID,
			BasePrice:       p.BasePrice,
			CleaningFee:     p.CleaningFee,
			SecurityDeposit: p.SecurityDeposit,
			ExtraGuestFee:   p.ExtraGuestFee,
			MaxGuests:       p.MaxGuests,
			MinimumStay:     p.MinimumStay,
			CommissionRate:  p.CommissionRate,
			IsActive:        true,
		})
	}
	for _, c := range seed.Coupons {
		s.AddCoupon(&entity.Coupon{
			ID:            c.ID,
			Code:          c.Code,
			DiscountType:  entity.DiscountType(c.DiscountType),
			DiscountValue: c.DiscountValue,
			MaxDiscount:   c.MaxDiscount,
			MinimumAmount: c.MinimumAmount,
			UsageLimit:    c.UsageLimit,
			ValidFrom:     c.ValidFrom,
			ValidUntil:    c.ValidUntil,
			IsActive:      true,
		})
	}
	for _, sl := range seed.PointsSlots {
		s.AddPointsSlot(&entity.PointsSlot{
			ID:                uuid.New(),
			MinAmount:         sl.MinAmount,
			MaxAmount:         sl.MaxAmount,
			PointsPerThousand: sl.PointsPerThousand,
			IsActive:          true,
		})
	}
	if st := seed.PointsSettings; st != nil {
		s.SetPointsSettings(&entity.PointsSettings{
			PointsPerTaka:       st.PointsPerTaka,
			MinPointsToRedeem:   st.MinPointsToRedeem,
			MaxPointsPerBooking: st.MaxPointsPerBooking,
			IsActive:            true,
		})
	}
	for userID, email := range seed.Contacts {
		s.AddContact(userID, email)
	}

	s.log.Info("Seed loaded",
		zap.String("path", path),
		zap.Int("properties", len(seed.Properties)),
		zap.Int("coupons", len(seed.Coupons)),
		zap.Int("points_slots", len(seed.PointsSlots)),
	)
	return nil
}
