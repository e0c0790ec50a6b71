package mocks

// Mock implementations used by tests
//go:generate mockgen -destination=./mock_claimer.go -package=mocks "github.com/armadaproject/placement/internal/placement/networkplanner" StaticIpClaimer
