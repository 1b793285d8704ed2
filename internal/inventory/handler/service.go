package handler

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/structpb"
)

const barInventoryServiceName = "omnipos.bar.v1.BarInventoryService"

// BarInventoryServer is the server API for omnipos.bar.v1.BarInventoryService.
// Requests and responses are google.protobuf.Struct documents.
type BarInventoryServer interface {
	ImportSales(context.Context, *structpb.Struct) (*structpb.Struct, error)
	ListInventory(context.Context, *structpb.Struct) (*structpb.Struct, error)
	GetSummary(context.Context, *structpb.Struct) (*structpb.Struct, error)
	ListMovements(context.Context, *structpb.Struct) (*structpb.Struct, error)
}

type unaryCall func(BarInventoryServer, context.Context, *structpb.Struct) (*structpb.Struct, error)

func unaryHandler(method string, call unaryCall) func(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	return func(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
		in := new(structpb.Struct)
		if err := dec(in); err != nil {
			return nil, err
		}
		if interceptor == nil {
			return call(srv.(BarInventoryServer), ctx, in)
		}
		info := &grpc.UnaryServerInfo{
			Server:     srv,
			FullMethod: "/" + barInventoryServiceName + "/" + method,
		}
		handler := func(ctx context.Context, req interface{}) (interface{}, error) {
			return call(srv.(BarInventoryServer), ctx, req.(*structpb.Struct))
		}
		return interceptor(ctx, in, info, handler)
	}
}

var barInventoryServiceDesc = grpc.ServiceDesc{
	ServiceName: barInventoryServiceName,
	HandlerType: (*BarInventoryServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "ImportSales", Handler: unaryHandler("ImportSales", BarInventoryServer.ImportSales)},
		{MethodName: "ListInventory", Handler: unaryHandler("ListInventory", BarInventoryServer.ListInventory)},
		{MethodName: "GetSummary", Handler: unaryHandler("GetSummary", BarInventoryServer.GetSummary)},
		{MethodName: "ListMovements", Handler: unaryHandler("ListMovements", BarInventoryServer.ListMovements)},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "omnipos/bar/v1/bar_inventory.proto",
}

func RegisterBarInventoryServiceServer(s grpc.ServiceRegistrar, srv BarInventoryServer) {
	s.RegisterService(&barInventoryServiceDesc, srv)
}
