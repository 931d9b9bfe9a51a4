package api

import (
	"github.com/holiman/uint256"
	"github.com/shopspring/decimal"

	"github.com/atmx/yield-farm/internal/model"
	"github.com/atmx/yield-farm/internal/token"
	"github.com/atmx/yield-farm/internal/units"
)

// Responses carry amounts in token units. Base-unit integers only appear
// where noted.

// PoolResponse is the JSON body for GET /api/v1/pool.
type PoolResponse struct {
	StakeToken        string          `json:"stake_token"`
	RewardToken       string          `json:"reward_token"`
	TotalStaked       decimal.Decimal `json:"total_staked"`
	RatePerSecond     decimal.Decimal `json:"rate_per_second"`
	RewardPool        decimal.Decimal `json:"reward_pool"`
	AccRewardPerShare string          `json:"acc_reward_per_share"` // raw, scaled by accumulator.Scale
	LastUpdateTime    uint64          `json:"last_update_time"`
	Timestamp         uint64          `json:"timestamp"`
}

// PositionResponse is the JSON body describing one user's position.
type PositionResponse struct {
	User      model.Address   `json:"user"`
	Staked    decimal.Decimal `json:"staked"`
	Pending   decimal.Decimal `json:"pending"`
	Owed      decimal.Decimal `json:"owed"`
	Claimable decimal.Decimal `json:"claimable"`
	Timestamp uint64          `json:"timestamp"`
}

// EventResponse is a farm event with token-unit amounts.
type EventResponse struct {
	ID        string           `json:"id"`
	Kind      model.EventKind  `json:"kind"`
	User      model.Address    `json:"user,omitempty"`
	Amount    decimal.Decimal  `json:"amount"`
	Reward    *decimal.Decimal `json:"reward,omitempty"`
	Timestamp uint64           `json:"timestamp"`
}

// ActivityResponse is the JSON body for GET /api/v1/users/{address}/activity.
type ActivityResponse struct {
	User          model.Address   `json:"user"`
	TotalStaked   decimal.Decimal `json:"total_staked"`
	TotalUnstaked decimal.Decimal `json:"total_unstaked"`
	TotalRewards  decimal.Decimal `json:"total_rewards"`
	EventCount    int             `json:"event_count"`
	LastActivity  uint64          `json:"last_activity"`
}

// TokenBalanceResponse is the JSON body for a token balance query.
type TokenBalanceResponse struct {
	Symbol   string          `json:"symbol"`
	Address  model.Address   `json:"address"`
	Balance  decimal.Decimal `json:"balance"`
	Decimals uint8           `json:"decimals"`
}

// eventDecimals reports the decimals of the token an event's amounts are denominated in.
func (s *Service) eventDecimals(kind model.EventKind) uint8 {
	switch kind {
	case model.EventStaked, model.EventUnstaked:
		return s.stakeToken.Decimals()
	default:
		return s.rewardToken.Decimals()
	}
}

func (s *Service) eventResponse(ev model.Event) EventResponse {
	resp := EventResponse{
		ID:        ev.ID,
		Kind:      ev.Kind,
		User:      ev.User,
		Amount:    units.ToDecimal(ev.Amount, s.eventDecimals(ev.Kind)),
		Timestamp: ev.Timestamp,
	}
	if ev.Reward != nil {
		r := units.ToDecimal(ev.Reward, s.rewardToken.Decimals())
		resp.Reward = &r
	}
	return resp
}

func (s *Service) eventResponses(events []model.Event) []EventResponse {
	out := make([]EventResponse, 0, len(events))
	for _, ev := range events {
		out = append(out, s.eventResponse(ev))
	}
	return out
}

func (s *Service) poolResponse(snap model.PoolSnapshot) PoolResponse {
	rd := s.rewardToken.Decimals()
	return PoolResponse{
		StakeToken:        s.stakeToken.Symbol(),
		RewardToken:       s.rewardToken.Symbol(),
		TotalStaked:       units.ToDecimal(snap.TotalStaked, s.stakeToken.Decimals()),
		RatePerSecond:     units.ToDecimal(snap.RatePerSecond, rd),
		RewardPool:        units.ToDecimal(snap.RewardPool, rd),
		AccRewardPerShare: dec(snap.AccRewardPerShare),
		LastUpdateTime:    snap.LastUpdateTime,
		Timestamp:         snap.Timestamp,
	}
}

func (s *Service) positionResponse(v model.PositionView) PositionResponse {
	rd := s.rewardToken.Decimals()
	return PositionResponse{
		User:      v.User,
		Staked:    units.ToDecimal(v.Staked, s.stakeToken.Decimals()),
		Pending:   units.ToDecimal(v.Pending, rd),
		Owed:      units.ToDecimal(v.Owed, rd),
		Claimable: units.ToDecimal(v.Claimable, rd),
		Timestamp: v.Timestamp,
	}
}

func (s *Service) activityResponse(a *model.UserActivity) ActivityResponse {
	rd := s.rewardToken.Decimals()
	sd := s.stakeToken.Decimals()
	return ActivityResponse{
		User:          a.User,
		TotalStaked:   units.ToDecimal(a.TotalStaked, sd),
		TotalUnstaked: units.ToDecimal(a.TotalUnstaked, sd),
		TotalRewards:  units.ToDecimal(a.TotalRewards, rd),
		EventCount:    a.EventCount,
		LastActivity:  a.LastActivity,
	}
}

func dec(v *uint256.Int) string {
	if v == nil {
		return "0"
	}
	return v.Dec()
}

func toDecimal(tok *token.Ledger, v *uint256.Int) decimal.Decimal {
	return units.ToDecimal(v, tok.Decimals())
}
