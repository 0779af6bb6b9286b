package grpc

// Service definition for riskwatch.risk.v1.RiskService. Messages travel with
// the JSON codec registered in json_codec.go.

import (
	"context"

	grpclib "google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

const serviceName = "riskwatch.risk.v1.RiskService"

// Full method names, used for per-method role checks.
const (
	MethodAssessPortfolio     = "/" + serviceName + "/AssessPortfolio"
	MethodAssessBatch         = "/" + serviceName + "/AssessBatch"
	MethodGetPortfolioHistory = "/" + serviceName + "/GetPortfolioHistory"
	MethodGetAssessment       = "/" + serviceName + "/GetAssessment"
)

// RiskServiceServer is the server API for RiskService.
type RiskServiceServer interface {
	AssessPortfolio(context.Context, *AssessPortfolioRequest) (*AssessmentResponse, error)
	AssessBatch(context.Context, *AssessBatchRequest) (*AssessmentResponse, error)
	GetPortfolioHistory(context.Context, *GetPortfolioHistoryRequest) (*GetPortfolioHistoryResponse, error)
	GetAssessment(context.Context, *GetAssessmentRequest) (*AssessmentResponse, error)
	mustEmbedUnimplementedRiskServiceServer()
}

// UnimplementedRiskServiceServer provides forward-compatible default implementations.
type UnimplementedRiskServiceServer struct{}

func (UnimplementedRiskServiceServer) AssessPortfolio(context.Context, *AssessPortfolioRequest) (*AssessmentResponse, error) {
	return nil, status.Errorf(codes.Unimplemented, "method AssessPortfolio not implemented")
}
func (UnimplementedRiskServiceServer) AssessBatch(context.Context, *AssessBatchRequest) (*AssessmentResponse, error) {
	return nil, status.Errorf(codes.Unimplemented, "method AssessBatch not implemented")
}
func (UnimplementedRiskServiceServer) GetPortfolioHistory(context.Context, *GetPortfolioHistoryRequest) (*GetPortfolioHistoryResponse, error) {
	return nil, status.Errorf(codes.Unimplemented, "method GetPortfolioHistory not implemented")
}
func (UnimplementedRiskServiceServer) GetAssessment(context.Context, *GetAssessmentRequest) (*AssessmentResponse, error) {
	return nil, status.Errorf(codes.Unimplemented, "method GetAssessment not implemented")
}
func (UnimplementedRiskServiceServer) mustEmbedUnimplementedRiskServiceServer() {}

// RegisterRiskServiceServer registers the RiskServiceServer with the gRPC server.
func RegisterRiskServiceServer(s grpclib.ServiceRegistrar, srv RiskServiceServer) {
	s.RegisterService(&riskServiceDesc, srv)
}

var riskServiceDesc = grpclib.ServiceDesc{
	ServiceName: serviceName,
	HandlerType: (*RiskServiceServer)(nil),
	Methods: []grpclib.MethodDesc{
		{MethodName: "AssessPortfolio", Handler: assessPortfolioHandler},
		{MethodName: "AssessBatch", Handler: assessBatchHandler},
		{MethodName: "GetPortfolioHistory", Handler: getPortfolioHistoryHandler},
		{MethodName: "GetAssessment", Handler: getAssessmentHandler},
	},
	Streams: []grpclib.StreamDesc{},
}

func assessPortfolioHandler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpclib.UnaryServerInterceptor) (interface{}, error) {
	req := new(AssessPortfolioRequest)
	if err := dec(req); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(RiskServiceServer).AssessPortfolio(ctx, req)
	}
	info := &grpclib.UnaryServerInfo{Server: srv, FullMethod: MethodAssessPortfolio}
	return interceptor(ctx, req, info, func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(RiskServiceServer).AssessPortfolio(ctx, req.(*AssessPortfolioRequest))
	})
}

func assessBatchHandler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpclib.UnaryServerInterceptor) (interface{}, error) {
	req := new(AssessBatchRequest)
	if err := dec(req); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(RiskServiceServer).AssessBatch(ctx, req)
	}
	info := &grpclib.UnaryServerInfo{Server: srv, FullMethod: MethodAssessBatch}
	return interceptor(ctx, req, info, func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(RiskServiceServer).AssessBatch(ctx, req.(*AssessBatchRequest))
	})
}

func getPortfolioHistoryHandler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpclib.UnaryServerInterceptor) (interface{}, error) {
	req := new(GetPortfolioHistoryRequest)
	if err := dec(req); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(RiskServiceServer).GetPortfolioHistory(ctx, req)
	}
	info := &grpclib.UnaryServerInfo{Server: srv, FullMethod: MethodGetPortfolioHistory}
	return interceptor(ctx, req, info, func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(RiskServiceServer).GetPortfolioHistory(ctx, req.(*GetPortfolioHistoryRequest))
	})
}

func getAssessmentHandler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpclib.UnaryServerInterceptor) (interface{}, error) {
	req := new(GetAssessmentRequest)
	if err := dec(req); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(RiskServiceServer).GetAssessment(ctx, req)
	}
	info := &grpclib.UnaryServerInfo{Server: srv, FullMethod: MethodGetAssessment}
	return interceptor(ctx, req, info, func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(RiskServiceServer).GetAssessment(ctx, req.(*GetAssessmentRequest))
	})
}

// RiskServiceClient is the client API for RiskService.
type RiskServiceClient struct {
	cc grpclib.ClientConnInterface
}

// NewRiskServiceClient wraps a connection. Calls use the JSON codec.
func NewRiskServiceClient(cc grpclib.ClientConnInterface) *RiskServiceClient {
	return &RiskServiceClient{cc: cc}
}

func (c *RiskServiceClient) invoke(ctx context.Context, method string, in, out interface{}, opts ...grpclib.CallOption) error {
	opts = append([]grpclib.CallOption{grpclib.CallContentSubtype(CodecName)}, opts...)
	return c.cc.Invoke(ctx, method, in, out, opts...)
}

func (c *RiskServiceClient) AssessPortfolio(ctx context.Context, in *AssessPortfolioRequest, opts ...grpclib.CallOption) (*AssessmentResponse, error) {
	out := new(AssessmentResponse)
	if err := c.invoke(ctx, MethodAssessPortfolio, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *RiskServiceClient) AssessBatch(ctx context.Context, in *AssessBatchRequest, opts ...grpclib.CallOption) (*AssessmentResponse, error) {
	out := new(AssessmentResponse)
	if err := c.invoke(ctx, MethodAssessBatch, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *RiskServiceClient) GetPortfolioHistory(ctx context.Context, in *GetPortfolioHistoryRequest, opts ...grpclib.CallOption) (*GetPortfolioHistoryResponse, error) {
	out := new(GetPortfolioHistoryResponse)
	if err := c.invoke(ctx, MethodGetPortfolioHistory, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *RiskServiceClient) GetAssessment(ctx context.Context, in *GetAssessmentRequest, opts ...grpclib.CallOption) (*AssessmentResponse, error) {
	out := new(AssessmentResponse)
	if err := c.invoke(ctx, MethodGetAssessment, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}
