package grpc

import (
	"context"

	"google.golang.org/grpc"

	"github.com/mr1hm/siaga-merapi/internal/models"
	"github.com/mr1hm/siaga-merapi/internal/spatial"
)

const (
	serviceName = "siagamerapi.v1.StatusService"

	getStatusMethod          = "/" + serviceName + "/GetStatus"
	streamStatusMethod       = "/" + serviceName + "/StreamStatus"
	findNearestShelterMethod = "/" + serviceName + "/FindNearestShelter"
)

type GetStatusRequest struct{}

type StatusMessage struct {
	Status          models.StatusLevel `json:"status"`
	Level           int                `json:"level"`
	Label           string             `json:"label"`
	Description     string             `json:"description"`
	Recommendations []string           `json:"recommendations"`
	UpdatedAt       int64              `json:"updated_at"`
}

type StreamStatusRequest struct {
	// IncludeCurrent sends the current status before any change.
	IncludeCurrent bool `json:"include_current"`
}

type NearestShelterRequest struct {
	Latitude  float64 `json:"lat"`
	Longitude float64 `json:"lng"`
}

type NearestShelterResponse struct {
	Shelter    models.Shelter   `json:"shelter"`
	DistanceKm float64          `json:"distance_km"`
	Risk       spatial.RiskTier `json:"risk_tier"`
	RiskScore  float64          `json:"risk_score"`
}

// StatusServiceServer is the server API for the status service.
type StatusServiceServer interface {
	GetStatus(context.Context, *GetStatusRequest) (*StatusMessage, error)
	StreamStatus(*StreamStatusRequest, grpc.ServerStream) error
	FindNearestShelter(context.Context, *NearestShelterRequest) (*NearestShelterResponse, error)
}

func getStatusHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(GetStatusRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(StatusServiceServer).GetStatus(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: getStatusMethod}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(StatusServiceServer).GetStatus(ctx, req.(*GetStatusRequest))
	}
	return interceptor(ctx, in, info, handler)
}

func findNearestShelterHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(NearestShelterRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(StatusServiceServer).FindNearestShelter(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: findNearestShelterMethod}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(StatusServiceServer).FindNearestShelter(ctx, req.(*NearestShelterRequest))
	}
	return interceptor(ctx, in, info, handler)
}

func streamStatusHandler(srv any, stream grpc.ServerStream) error {
	in := new(StreamStatusRequest)
	if err := stream.RecvMsg(in); err != nil {
		return err
	}
	return srv.(StatusServiceServer).StreamStatus(in, stream)
}

var serviceDesc = grpc.ServiceDesc{
	ServiceName: serviceName,
	HandlerType: (*StatusServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "GetStatus", Handler: getStatusHandler},
		{MethodName: "FindNearestShelter", Handler: findNearestShelterHandler},
	},
	Streams: []grpc.StreamDesc{
		{StreamName: "StreamStatus", Handler: streamStatusHandler, ServerStreams: true},
	},
}

func RegisterStatusServiceServer(s grpc.ServiceRegistrar, srv StatusServiceServer) {
	s.RegisterService(&serviceDesc, srv)
}
