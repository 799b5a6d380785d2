package segmentationv1

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// ServiceName is the fully qualified gRPC service name.
const ServiceName = "segmentation.v1.SegmentationService"

const streamSegmentsMethod = "/" + ServiceName + "/StreamSegments"

// SegmentationServiceServer is the server API for the segmentation service.
type SegmentationServiceServer interface {
	// StreamSegments ingests word frames and streams back segment updates.
	StreamSegments(SegmentationService_StreamSegmentsServer) error
}

// UnimplementedSegmentationServiceServer can be embedded for forward
// compatibility.
type UnimplementedSegmentationServiceServer struct{}

func (UnimplementedSegmentationServiceServer) StreamSegments(SegmentationService_StreamSegmentsServer) error {
	return status.Errorf(codes.Unimplemented, "method StreamSegments not implemented")
}

// SegmentationService_StreamSegmentsServer is the server view of the stream.
type SegmentationService_StreamSegmentsServer interface {
	Send(*StreamSegmentsResponse) error
	Recv() (*StreamSegmentsRequest, error)
	grpc.ServerStream
}

type segmentationStreamSegmentsServer struct {
	grpc.ServerStream
}

func (x *segmentationStreamSegmentsServer) Send(m *StreamSegmentsResponse) error {
	return x.ServerStream.SendMsg(m)
}

func (x *segmentationStreamSegmentsServer) Recv() (*StreamSegmentsRequest, error) {
	m := new(StreamSegmentsRequest)
	if err := x.ServerStream.RecvMsg(m); err != nil {
		return nil, err
	}
	return m, nil
}

func streamSegmentsHandler(srv any, stream grpc.ServerStream) error {
	return srv.(SegmentationServiceServer).StreamSegments(&segmentationStreamSegmentsServer{stream})
}

// SegmentationService_ServiceDesc is the service descriptor registered with
// the gRPC server.
var SegmentationService_ServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*SegmentationServiceServer)(nil),
	Methods:     []grpc.MethodDesc{},
	Streams: []grpc.StreamDesc{
		{
			StreamName:    "StreamSegments",
			Handler:       streamSegmentsHandler,
			ServerStreams: true,
			ClientStreams: true,
		},
	},
	Metadata: "api/segmentationv1/service.go",
}

// RegisterSegmentationServiceServer registers srv with the gRPC registrar.
func RegisterSegmentationServiceServer(s grpc.ServiceRegistrar, srv SegmentationServiceServer) {
	s.RegisterService(&SegmentationService_ServiceDesc, srv)
}

// SegmentationServiceClient is the client API for the segmentation service.
type SegmentationServiceClient interface {
	StreamSegments(ctx context.Context, opts ...grpc.CallOption) (SegmentationService_StreamSegmentsClient, error)
}

// SegmentationService_StreamSegmentsClient is the client view of the stream.
type SegmentationService_StreamSegmentsClient interface {
	Send(*StreamSegmentsRequest) error
	Recv() (*StreamSegmentsResponse, error)
	grpc.ClientStream
}

type segmentationServiceClient struct {
	cc grpc.ClientConnInterface
}

// NewSegmentationServiceClient returns a client bound to cc. All calls use
// the JSON codec registered by this package.
func NewSegmentationServiceClient(cc grpc.ClientConnInterface) SegmentationServiceClient {
	return &segmentationServiceClient{cc: cc}
}

func (c *segmentationServiceClient) StreamSegments(ctx context.Context, opts ...grpc.CallOption) (SegmentationService_StreamSegmentsClient, error) {
	opts = append([]grpc.CallOption{grpc.CallContentSubtype(CodecName)}, opts...)
	stream, err := c.cc.NewStream(ctx, &SegmentationService_ServiceDesc.Streams[0], streamSegmentsMethod, opts...)
	if err != nil {
		return nil, err
	}
	return &segmentationStreamSegmentsClient{stream}, nil
}

type segmentationStreamSegmentsClient struct {
	grpc.ClientStream
}

func (x *segmentationStreamSegmentsClient) Send(m *StreamSegmentsRequest) error {
	return x.ClientStream.SendMsg(m)
}

func (x *segmentationStreamSegmentsClient) Recv() (*StreamSegmentsResponse, error) {
	m := new(StreamSegmentsResponse)
	if err := x.ClientStream.RecvMsg(m); err != nil {
		return nil, err
	}
	return m, nil
}
