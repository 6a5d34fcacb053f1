// Package camundatest provides an in-memory job client that records the
// commands a handler sends.
package camundatest

import (
	"context"
	"sync"

	"github.com/camunda/zeebe/clients/go/v8/pkg/commands"
	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/pb"
	"google.golang.org/grpc"
)

const (
	KindComplete = "complete"
	KindFail     = "fail"
	KindThrow    = "throw"
)

// Command is one request the gateway received.
type Command struct {
	Kind         string
	JobKey       int64
	Variables    string
	Retries      int32
	ErrorCode    string
	ErrorMessage string
	// CtxErr is the context's error at the time the command was sent.
	CtxErr error
}

// JobClient implements worker.JobClient over a recording gateway. Set
// SendErr to make every command fail.
type JobClient struct {
	pb.GatewayClient

	mu       sync.Mutex
	commands []Command
	SendErr  error
}

func NewJobClient() *JobClient {
	return &JobClient{}
}

func noRetry(context.Context, error) bool { return false }

func (c *JobClient) NewCompleteJobCommand() commands.CompleteJobCommandStep1 {
	return commands.NewCompleteJobCommand(c, noRetry)
}

func (c *JobClient) NewFailJobCommand() commands.FailJobCommandStep1 {
	return commands.NewFailJobCommand(c, noRetry)
}

func (c *JobClient) NewThrowErrorCommand() commands.ThrowErrorCommandStep1 {
	return commands.NewThrowErrorCommand(c, noRetry)
}

func (c *JobClient) CompleteJob(ctx context.Context, in *pb.CompleteJobRequest, _ ...grpc.CallOption) (*pb.CompleteJobResponse, error) {
	c.record(Command{Kind: KindComplete, JobKey: in.JobKey, Variables: in.Variables, CtxErr: ctx.Err()})
	if c.SendErr != nil {
		return nil, c.SendErr
	}
	return &pb.CompleteJobResponse{}, nil
}

func (c *JobClient) FailJob(ctx context.Context, in *pb.FailJobRequest, _ ...grpc.CallOption) (*pb.FailJobResponse, error) {
	c.record(Command{Kind: KindFail, JobKey: in.JobKey, Variables: in.Variables, Retries: in.Retries, ErrorMessage: in.ErrorMessage, CtxErr: ctx.Err()})
	if c.SendErr != nil {
		return nil, c.SendErr
	}
	return &pb.FailJobResponse{}, nil
}

func (c *JobClient) ThrowError(ctx context.Context, in *pb.ThrowErrorRequest, _ ...grpc.CallOption) (*pb.ThrowErrorResponse, error) {
	c.record(Command{Kind: KindThrow, JobKey: in.JobKey, Variables: in.Variables, ErrorCode: in.ErrorCode, ErrorMessage: in.ErrorMessage, CtxErr: ctx.Err()})
	if c.SendErr != nil {
		return nil, c.SendErr
	}
	return &pb.ThrowErrorResponse{}, nil
}

func (c *JobClient) record(cmd Command) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.commands = append(c.commands, cmd)
}

// Commands returns what was sent so far, in order.
func (c *JobClient) Commands() []Command {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]Command(nil), c.commands...)
}

// Job builds an activated job with the given key, type and variables.
func Job(key int64, taskType, variables string) entities.Job {
	return entities.Job{ActivatedJob: &pb.ActivatedJob{
		Key:       key,
		Type:      taskType,
		Variables: variables,
		Retries:   3,
	}}
}
