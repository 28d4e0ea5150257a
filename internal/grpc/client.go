package grpc

import (
	"context"

	"google.golang.org/grpc"
)

// Client calls the status service over an existing connection.
type Client struct {
	cc grpc.ClientConnInterface
}

func NewClient(cc grpc.ClientConnInterface) *Client {
	return &Client{cc: cc}
}

func (c *Client) GetStatus(ctx context.Context) (*StatusMessage, error) {
	out := new(StatusMessage)
	if err := c.cc.Invoke(ctx, getStatusMethod, &GetStatusRequest{}, out, grpc.CallContentSubtype(codecName)); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) FindNearestShelter(ctx context.Context, lat, lng float64) (*NearestShelterResponse, error) {
	out := new(NearestShelterResponse)
	in := &NearestShelterRequest{Latitude: lat, Longitude: lng}
	if err := c.cc.Invoke(ctx, findNearestShelterMethod, in, out, grpc.CallContentSubtype(codecName)); err != nil {
		return nil, err
	}
	return out, nil
}

// StatusStream receives status changes from StreamStatus.
type StatusStream struct {
	stream grpc.ClientStream
}

func (s *StatusStream) Recv() (*StatusMessage, error) {
	out := new(StatusMessage)
	if err := s.stream.RecvMsg(out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) StreamStatus(ctx context.Context, includeCurrent bool) (*StatusStream, error) {
	stream, err := c.cc.NewStream(ctx, &serviceDesc.Streams[0], streamStatusMethod, grpc.CallContentSubtype(codecName))
	if err != nil {
		return nil, err
	}
	if err := stream.SendMsg(&StreamStatusRequest{IncludeCurrent: includeCurrent}); err != nil {
		return nil, err
	}
	if err := stream.CloseSend(); err != nil {
		return nil, err
	}
	return &StatusStream{stream: stream}, nil
}
