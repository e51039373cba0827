// Package camundatest provides an in-memory worker.JobClient that records
// the commands a job handler sends.
package camundatest

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/camunda/zeebe/clients/go/v8/pkg/commands"
	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/pb"
	"google.golang.org/grpc"
)

// Gateway implements the job commands of pb.GatewayClient. Calling any other
// gateway method panics.
type Gateway struct {
	pb.GatewayClient

	mu        sync.Mutex
	completed []*pb.CompleteJobRequest
	failed    []*pb.FailJobRequest
	thrown    []*pb.ThrowErrorRequest
}

func (g *Gateway) CompleteJob(_ context.Context, in *pb.CompleteJobRequest, _ ...grpc.CallOption) (*pb.CompleteJobResponse, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.completed = append(g.completed, in)
	return &pb.CompleteJobResponse{}, nil
}

func (g *Gateway) FailJob(_ context.Context, in *pb.FailJobRequest, _ ...grpc.CallOption) (*pb.FailJobResponse, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.failed = append(g.failed, in)
	return &pb.FailJobResponse{}, nil
}

func (g *Gateway) ThrowError(_ context.Context, in *pb.ThrowErrorRequest, _ ...grpc.CallOption) (*pb.ThrowErrorResponse, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.thrown = append(g.thrown, in)
	return &pb.ThrowErrorResponse{}, nil
}

func (g *Gateway) Completed() []*pb.CompleteJobRequest {
	g.mu.Lock()
	defer g.mu.Unlock()
	return append([]*pb.CompleteJobRequest(nil), g.completed...)
}

func (g *Gateway) Failed() []*pb.FailJobRequest {
	g.mu.Lock()
	defer g.mu.Unlock()
	return append([]*pb.FailJobRequest(nil), g.failed...)
}

func (g *Gateway) Thrown() []*pb.ThrowErrorRequest {
	g.mu.Lock()
	defer g.mu.Unlock()
	return append([]*pb.ThrowErrorRequest(nil), g.thrown...)
}

// JobClient builds real command objects on top of a recording Gateway.
type JobClient struct {
	Gateway *Gateway
}

func NewJobClient() *JobClient {
	return &JobClient{Gateway: &Gateway{}}
}

func (c *JobClient) NewCompleteJobCommand() commands.CompleteJobCommandStep1 {
	return commands.NewCompleteJobCommand(c.Gateway, neverRetry)
}

func (c *JobClient) NewFailJobCommand() commands.FailJobCommandStep1 {
	return commands.NewFailJobCommand(c.Gateway, neverRetry)
}

func (c *JobClient) NewThrowErrorCommand() commands.ThrowErrorCommandStep1 {
	return commands.NewThrowErrorCommand(c.Gateway, neverRetry)
}

func neverRetry(context.Context, error) bool { return false }

// NewJob returns an activated job whose variables are the JSON encoding of
// variables. A string or []byte is used verbatim.
func NewJob(key int64, taskType string, variables interface{}) entities.Job {
	var vars string
	switch v := variables.(type) {
	case string:
		vars = v
	case []byte:
		vars = string(v)
	default:
		data, _ := json.Marshal(v)
		vars = string(data)
	}

	return entities.Job{ActivatedJob: &pb.ActivatedJob{
		Key:                      key,
		Type:                     taskType,
		ProcessInstanceKey:       key * 10,
		BpmnProcessId:            "reading-effort-analysis",
		ProcessDefinitionVersion: 1,
		ProcessDefinitionKey:     1,
		ElementId:                "Activity_" + taskType,
		ElementInstanceKey:       1,
		CustomHeaders:            "{}",
		Worker:                   "test-worker",
		Retries:                  3,
		Variables:                vars,
	}}
}
