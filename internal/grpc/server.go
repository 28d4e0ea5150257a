// Package grpc exposes the volcano status and nearest shelter lookup over
// gRPC with a JSON codec.
package grpc

import (
	"context"
	"log/slog"
	"net"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/mr1hm/siaga-merapi/internal/models"
	"github.com/mr1hm/siaga-merapi/internal/spatial"
	statuspkg "github.com/mr1hm/siaga-merapi/internal/status"
)

// StatusSource is the live status store.
type StatusSource interface {
	Get() models.VolcanoStatus
	Subscribe() (uint64, <-chan models.VolcanoStatus)
	Unsubscribe(id uint64)
}

type ShelterLister interface {
	ListShelters(ctx context.Context) ([]models.Shelter, error)
}

type Server struct {
	statuses   StatusSource
	shelters   ShelterLister
	grpcServer *grpc.Server
}

func NewServer(statuses StatusSource, shelters ShelterLister) *Server {
	s := &Server{
		statuses: statuses,
		shelters: shelters,
	}
	s.grpcServer = grpc.NewServer(grpc.ChainUnaryInterceptor(logUnary))
	RegisterStatusServiceServer(s.grpcServer, s)
	return s
}

func (s *Server) Start(addr string) error {
	lis, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}

	slog.Info("gRPC server listening", "addr", addr)
	return s.Serve(lis)
}

func (s *Server) Serve(lis net.Listener) error {
	return s.grpcServer.Serve(lis)
}

func (s *Server) Stop() {
	if s.grpcServer != nil {
		s.grpcServer.GracefulStop()
	}
}

func (s *Server) GetStatus(ctx context.Context, req *GetStatusRequest) (*StatusMessage, error) {
	return toMessage(s.statuses.Get()), nil
}

func (s *Server) StreamStatus(req *StreamStatusRequest, stream grpc.ServerStream) error {
	id, ch := s.statuses.Subscribe()
	defer s.statuses.Unsubscribe(id)

	slog.Info("client subscribed to status stream", "subscriber_id", id)

	if req.IncludeCurrent {
		if err := stream.SendMsg(toMessage(s.statuses.Get())); err != nil {
			return err
		}
	}

	for {
		select {
		case <-stream.Context().Done():
			slog.Info("client disconnected from status stream", "subscriber_id", id)
			return nil
		case st, ok := <-ch:
			if !ok {
				return nil
			}
			if err := stream.SendMsg(toMessage(st)); err != nil {
				slog.Error("failed to send status to stream", "error", err, "subscriber_id", id)
				return err
			}
		}
	}
}

func (s *Server) FindNearestShelter(ctx context.Context, req *NearestShelterRequest) (*NearestShelterResponse, error) {
	user := models.Coordinates{Latitude: req.Latitude, Longitude: req.Longitude}
	if !user.Valid() {
		return nil, status.Error(codes.InvalidArgument, "invalid coordinates")
	}

	shelters, err := s.shelters.ListShelters(ctx)
	if err != nil {
		return nil, status.Errorf(codes.Internal, "failed to list shelters: %v", err)
	}

	nearest, ok := spatial.Nearest(&user, shelters)
	if !ok {
		return nil, status.Error(codes.NotFound, "no shelter with valid coordinates")
	}

	loc, _ := nearest.Shelter.Location()
	risk := spatial.RiskOf(loc, spatial.HazardSource())
	return &NearestShelterResponse{
		Shelter:    nearest.Shelter,
		DistanceKm: nearest.DistanceKm,
		Risk:       risk.RiskTier,
		RiskScore:  risk.RiskScore,
	}, nil
}

func toMessage(st models.VolcanoStatus) *StatusMessage {
	info := statuspkg.Info(st.Level)
	return &StatusMessage{
		Status:          info.Level,
		Level:           info.Index,
		Label:           info.Label,
		Description:     info.Description,
		Recommendations: info.Recommendations,
		UpdatedAt:       st.UpdatedAt.Unix(),
	}
}

func logUnary(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
	start := time.Now()
	resp, err := handler(ctx, req)
	slog.Debug("gRPC call", "method", info.FullMethod, "code", status.Code(err).String(), "duration", time.Since(start))
	return resp, err
}
