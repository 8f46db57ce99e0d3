package graph

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	apperrors "github.com/meridianfin/tradegate/pkg/errors"
	"github.com/meridianfin/tradegate/pkg/models"
)

// Config holds the store connection parameters. Passed explicitly into
// Open; there is no package-level connection state.
type Config struct {
	Driver string `mapstructure:"driver" validate:"oneof=sqlite postgres"`
	DSN    string `mapstructure:"dsn" validate:"required"`

	MaxOpenConns int           `mapstructure:"max_open_conns"`
	ConnLifetime time.Duration `mapstructure:"conn_lifetime"`
}

// entityRow mirrors the entity nodes the ingest pipeline materializes.
type entityRow struct {
	Name            string `gorm:"primaryKey;column:name"`
	Type            string `gorm:"column:type"`
	Country         string `gorm:"column:country"`
	OnSanctionsList bool   `gorm:"column:on_sanctions_list"`
}

func (entityRow) TableName() string { return "entities" }

// instrumentRow mirrors a letter of credit and its linked document facts.
type instrumentRow struct {
	ID          string `gorm:"primaryKey;column:id"`
	BuyerName   string `gorm:"column:buyer_name;index"`
	SellerName  string `gorm:"column:seller_name;index"`
	IssuingBank string `gorm:"column:issuing_bank;index"`

	Amount    float64   `gorm:"column:amount"`
	IssueDate time.Time `gorm:"column:issue_date;index"`

	LatestShipmentDate *time.Time `gorm:"column:latest_shipment_date"`
	ShipmentDate       *time.Time `gorm:"column:shipment_date"`
	InvoiceAmount      *float64   `gorm:"column:invoice_amount"`

	HasInvoice     bool `gorm:"column:has_invoice"`
	HasShipmentDoc bool `gorm:"column:has_shipment_doc"`
	HasPackingList bool `gorm:"column:has_packing_list"`

	Amended            bool `gorm:"column:amended"`
	FraudFlag          bool `gorm:"column:fraud_flag"`
	SuspiciousActivity bool `gorm:"column:suspicious_activity"`

	PortCountry string `gorm:"column:port_country"`
}

func (instrumentRow) TableName() string { return "instruments" }

// linkRow is one undirected relationship edge between two entities.
type linkRow struct {
	FromName string `gorm:"column:from_name;index"`
	ToName   string `gorm:"column:to_name;index"`
	Relation string `gorm:"column:relation"`
}

func (linkRow) TableName() string { return "entity_links" }

// SQLStore is the gorm-backed Store. sqlite serves local fixtures and
// tests, postgres the shared deployment.
type SQLStore struct {
	db     *gorm.DB
	logger *zap.Logger
}

var _ Store = (*SQLStore)(nil)

// Open connects to the relationship store.
func Open(cfg Config, logger *zap.Logger) (*SQLStore, error) {
	var dialector gorm.Dialector
	switch cfg.Driver {
	case "sqlite":
		dialector = sqlite.Open(cfg.DSN)
	case "postgres":
		dialector = postgres.Open(cfg.DSN)
	default:
		return nil, apperrors.New(apperrors.KindInvalidInput, "unsupported store driver %q", cfg.Driver)
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		return nil, apperrors.Wrap(apperrors.KindStoreUnavailable, err, "open relationship store")
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, apperrors.Wrap(apperrors.KindStoreUnavailable, err, "acquire store pool")
	}
	if cfg.MaxOpenConns > 0 {
		sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	}
	if cfg.ConnLifetime > 0 {
		sqlDB.SetConnMaxLifetime(cfg.ConnLifetime)
	}

	logger.Info("relationship store connected", zap.String("driver", cfg.Driver))
	return &SQLStore{db: db, logger: logger}, nil
}

// AutoMigrate creates the store schema. The ingest pipeline owns the
// schema in production; this exists for tests and local fixtures.
func (s *SQLStore) AutoMigrate() error {
	return s.db.AutoMigrate(&entityRow{}, &instrumentRow{}, &linkRow{})
}

// Session returns a fresh session bound to ctx.
func (s *SQLStore) Session(ctx context.Context) (Session, error) {
	db := s.db.Session(&gorm.Session{NewDB: true}).WithContext(ctx)
	return &sqlSession{db: db}, nil
}

// Close shuts the underlying pool down.
func (s *SQLStore) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// DB exposes the raw handle for fixture loading in tests.
func (s *SQLStore) DB() *gorm.DB { return s.db }

type sqlSession struct {
	db *gorm.DB
}

var _ Session = (*sqlSession)(nil)

func (s *sqlSession) Entity(ctx context.Context, name string, typ models.EntityType) (*EntityNode, error) {
	var row entityRow
	err := s.db.WithContext(ctx).
		Where("name = ? AND type = ?", name, string(typ)).
		First(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.New(apperrors.KindNotFound, "entity %q (%s) not in graph", name, typ)
		}
		return nil, translateStoreErr(err, "entity lookup")
	}
	return &EntityNode{
		Name:            row.Name,
		Type:            models.EntityType(row.Type),
		Country:         row.Country,
		OnSanctionsList: row.OnSanctionsList,
	}, nil
}

func (s *sqlSession) Instruments(ctx context.Context, name string, typ models.EntityType, since time.Time) ([]Instrument, error) {
	q := s.db.WithContext(ctx).Model(&instrumentRow{}).Where("issue_date >= ?", since)
	switch typ {
	case models.EntityTypeBuyer:
		q = q.Where("buyer_name = ?", name)
	case models.EntityTypeSeller:
		q = q.Where("seller_name = ?", name)
	case models.EntityTypeBank:
		q = q.Where("issuing_bank = ?", name)
	default:
		return nil, apperrors.New(apperrors.KindInvalidInput, "unknown entity type %q", typ)
	}

	var rows []instrumentRow
	if err := q.Order("issue_date").Find(&rows).Error; err != nil {
		return nil, translateStoreErr(err, "instrument scan")
	}

	out := make([]Instrument, 0, len(rows))
	for _, r := range rows {
		out = append(out, Instrument{
			ID:                 r.ID,
			Counterparty:       counterpartyOf(r, typ),
			Amount:             r.Amount,
			IssueDate:          r.IssueDate,
			LatestShipmentDate: r.LatestShipmentDate,
			ShipmentDate:       r.ShipmentDate,
			InvoiceAmount:      r.InvoiceAmount,
			HasInvoice:         r.HasInvoice,
			HasShipmentDoc:     r.HasShipmentDoc,
			HasPackingList:     r.HasPackingList,
			Amended:            r.Amended,
			FraudFlag:          r.FraudFlag,
			SuspiciousActivity: r.SuspiciousActivity,
			PortCountry:        r.PortCountry,
		})
	}
	return out, nil
}

func counterpartyOf(r instrumentRow, typ models.EntityType) string {
	switch typ {
	case models.EntityTypeBuyer:
		return r.SellerName
	case models.EntityTypeSeller:
		return r.BuyerName
	default:
		// The bank's exposure runs against the obligor.
		return r.BuyerName
	}
}

// SanctionedWithinHops walks the undirected link edges breadth-first.
// Hop counts are small (at most two) so the frontier queries stay
// bounded.
func (s *sqlSession) SanctionedWithinHops(ctx context.Context, name string, maxHops int) (bool, error) {
	visited := map[string]bool{name: true}
	frontier := []string{name}

	for hop := 0; hop < maxHops && len(frontier) > 0; hop++ {
		var links []linkRow
		err := s.db.WithContext(ctx).
			Where("from_name IN ? OR to_name IN ?", frontier, frontier).
			Find(&links).Error
		if err != nil {
			return false, translateStoreErr(err, "link traversal")
		}

		next := make([]string, 0, len(links))
		for _, l := range links {
			for _, n := range []string{l.FromName, l.ToName} {
				if !visited[n] {
					visited[n] = true
					next = append(next, n)
				}
			}
		}
		if len(next) == 0 {
			return false, nil
		}

		var hits int64
		err = s.db.WithContext(ctx).Model(&entityRow{}).
			Where("name IN ? AND on_sanctions_list = ?", next, true).
			Count(&hits).Error
		if err != nil {
			return false, translateStoreErr(err, "sanctioned neighbor check")
		}
		if hits > 0 {
			return true, nil
		}
		frontier = next
	}
	return false, nil
}

func (s *sqlSession) SanctionedAmong(ctx context.Context, names []string) (int, error) {
	if len(names) == 0 {
		return 0, nil
	}
	var hits int64
	err := s.db.WithContext(ctx).Model(&entityRow{}).
		Where("name IN ? AND on_sanctions_list = ?", names, true).
		Count(&hits).Error
	if err != nil {
		return 0, translateStoreErr(err, "sanctioned counterparty count")
	}
	return int(hits), nil
}

func (s *sqlSession) Close() error { return nil }

func translateStoreErr(err error, op string) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return apperrors.Wrap(apperrors.KindTimeout, err, "%s exceeded time budget", op)
	}
	return apperrors.Wrap(apperrors.KindStoreUnavailable, err, "%s", fmt.Sprintf("%s failed", op))
}
