package postgres

import (
	"context"
	"database/sql"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/anvika-shop/storefront/internal/domain"
)

// configRepository reads and writes the singleton wallet and tax
// configuration rows. The services load these once per operation and pass
// them into the pricing engine explicitly.
type configRepository struct {
	db     dbtx
	logger *zap.Logger
}

// NewConfigRepository creates a new config repository
func NewConfigRepository(db dbtx, logger *zap.Logger) *configRepository {
	return &configRepository{
		db:     db,
		logger: logger,
	}
}

func (r *configRepository) GetWalletConfig(ctx context.Context) (*domain.WalletConfig, error) {
	cfg := &domain.WalletConfig{
		RupeesPerPoint:      decimal.NewFromInt(1),
		RewardTierTolerance: decimal.NewFromInt(5),
	}

	err := r.db.QueryRowContext(ctx, `
		SELECT rupees_per_point, reward_tier_tolerance FROM wallet_config WHERE id = 1
	`).Scan(&cfg.RupeesPerPoint, &cfg.RewardTierTolerance)
	if err != nil && err != sql.ErrNoRows {
		r.logger.Error("Failed to get wallet config", zap.Error(err))
		return nil, err
	}

	rows, err := r.db.QueryContext(ctx, `
		SELECT min_spend, points_awarded
		FROM wallet_reward_rules
		ORDER BY min_spend DESC
	`)
	if err != nil {
		r.logger.Error("Failed to list reward rules", zap.Error(err))
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var rule domain.RewardRule
		if err := rows.Scan(&rule.MinSpend, &rule.PointsAwarded); err != nil {
			return nil, err
		}
		cfg.RewardRules = append(cfg.RewardRules, rule)
	}
	return cfg, rows.Err()
}

func (r *configRepository) SaveWalletConfig(ctx context.Context, cfg *domain.WalletConfig) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO wallet_config (id, rupees_per_point, reward_tier_tolerance, updated_at)
		VALUES (1, $1, $2, NOW())
		ON CONFLICT (id) DO UPDATE
		SET rupees_per_point = EXCLUDED.rupees_per_point,
		    reward_tier_tolerance = EXCLUDED.reward_tier_tolerance,
		    updated_at = NOW()
	`, cfg.RupeesPerPoint, cfg.RewardTierTolerance)
	if err != nil {
		r.logger.Error("Failed to save wallet config", zap.Error(err))
		return err
	}

	if _, err := r.db.ExecContext(ctx, `DELETE FROM wallet_reward_rules`); err != nil {
		return err
	}
	for _, rule := range cfg.RewardRules {
		if _, err := r.db.ExecContext(ctx, `
			INSERT INTO wallet_reward_rules (min_spend, points_awarded)
			VALUES ($1, $2)
		`, rule.MinSpend, rule.PointsAwarded); err != nil {
			r.logger.Error("Failed to save reward rule", zap.Error(err))
			return err
		}
	}
	return nil
}

func (r *configRepository) GetTaxRate(ctx context.Context) (decimal.Decimal, error) {
	var rate decimal.Decimal
	err := r.db.QueryRowContext(ctx, `SELECT rate FROM tax_config WHERE id = 1`).Scan(&rate)
	if err == sql.ErrNoRows {
		// Default 3% until configured
		return decimal.NewFromFloat(0.03), nil
	}
	if err != nil {
		r.logger.Error("Failed to get tax rate", zap.Error(err))
		return decimal.Zero, err
	}
	return rate, nil
}

func (r *configRepository) SetTaxRate(ctx context.Context, rate decimal.Decimal) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO tax_config (id, rate, updated_at)
		VALUES (1, $1, NOW())
		ON CONFLICT (id) DO UPDATE SET rate = EXCLUDED.rate, updated_at = NOW()
	`, rate)
	if err != nil {
		r.logger.Error("Failed to set tax rate", zap.Error(err))
	}
	return err
}
