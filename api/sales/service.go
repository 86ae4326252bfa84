package sales

import (
	"PosDashSaas/internal/serviceiface"

	"github.com/jackc/pgx/v5/pgxpool"
)

type SalesService struct {
	config map[string]interface{}
	pool   *pgxpool.Pool
}

func NewSalesService(cfg map[string]interface{}, pool *pgxpool.Pool) serviceiface.Service {
	return &SalesService{config: cfg, pool: pool}
}

func (s *SalesService) Name() string {
	return "sales"
}

func (s *SalesService) Start() error {
	go StartSalesService(s.pool)
	return nil
}

func (s *SalesService) Stop() error {
	return nil
}
