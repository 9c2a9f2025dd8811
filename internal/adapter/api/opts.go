package api

import (
	"log/slog"
	"net"
	"strconv"

	"github.com/sbpr-app/sbpr_backend/internal/adapter/relay"
	"github.com/sbpr-app/sbpr_backend/internal/adapter/storage"
	measurementservice "github.com/sbpr-app/sbpr_backend/internal/app/measurement"
	settingsservice "github.com/sbpr-app/sbpr_backend/internal/app/settings"
	transferservice "github.com/sbpr-app/sbpr_backend/internal/app/transfer"
	"github.com/sbpr-app/sbpr_backend/internal/app/unitofwork"
)

type Option func(*Server)

func Addr(host string, port int) Option {
	return func(s *Server) {
		s.addr = net.JoinHostPort(host, strconv.Itoa(port))
	}
}

func Logger(l *slog.Logger) Option {
	return func(s *Server) {
		s.logger = l
	}
}

func DBContext(db storage.DB) Option {
	return func(s *Server) {
		s.db = db
	}
}

func MeasurementService(service *measurementservice.Service) Option {
	return func(s *Server) {
		s.measurementService = service
	}
}

func SettingsService(service *settingsservice.Service) Option {
	return func(s *Server) {
		s.settingsService = service
	}
}

func TransferService(service *transferservice.Service) Option {
	return func(s *Server) {
		s.transferService = service
	}
}

func RelayClient(client *relay.Client) Option {
	return func(s *Server) {
		s.relayClient = client
	}
}

func MessageBus(bus unitofwork.MessageBus) Option {
	return func(s *Server) {
		s.msgBus = bus
	}
}
