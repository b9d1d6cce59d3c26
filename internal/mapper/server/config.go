package server

import "github.com/autopeer-io/rfmapper/pkg/options"

type Config struct {
	HttpOptions *options.HttpOptions
	GrpcOptions *options.GrpcOptions
}
