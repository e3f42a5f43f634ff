package errors

import (
	"fmt"

	"github.com/mcp-use/mcp-go/pkg/protocol"
)

// ToJSONRPCResponse converts any error to a JSON-RPC error response.
func ToJSONRPCResponse(err error, requestID interface{}) (*protocol.Response, error) {
	if err == nil {
		return nil, fmt.Errorf("cannot create error response from nil error")
	}

	if mcpErr, ok := AsMCPError(err); ok {
		return protocol.NewErrorResponse(requestID, protocol.ErrorCode(mcpErr.Code()), mcpErr.Message(), mcpErr.Data())
	}

	return protocol.NewErrorResponse(requestID, protocol.InternalError, err.Error(), nil)
}

// ToJSONRPCError converts any error to a JSON-RPC error object.
func ToJSONRPCError(err error) *protocol.Error {
	if err == nil {
		return nil
	}

	if mcpErr, ok := AsMCPError(err); ok {
		return &protocol.Error{
			Code:    mcpErr.Code(),
			Message: mcpErr.Message(),
		}
	}

	return &protocol.Error{
		Code:    CodeInternalError,
		Message: err.Error(),
	}
}

// FromJSONRPCError converts a JSON-RPC error object to an MCPError.
func FromJSONRPCError(jsonrpcErr *protocol.Error) MCPError {
	if jsonrpcErr == nil {
		return nil
	}

	err := NewError(jsonrpcErr.Code, jsonrpcErr.Message, CategoryForCode(jsonrpcErr.Code), SeverityError)
	if jsonrpcErr.Data != nil {
		err = err.WithData(jsonrpcErr.Data)
	}
	return err
}
