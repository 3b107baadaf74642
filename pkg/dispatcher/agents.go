package dispatcher

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/taskorbit/orchestrator/pkg/agent"
	"github.com/taskorbit/orchestrator/pkg/aggregator"
	"github.com/taskorbit/orchestrator/pkg/config"
	"github.com/taskorbit/orchestrator/pkg/models"
	"github.com/taskorbit/orchestrator/pkg/router"
	"github.com/taskorbit/orchestrator/pkg/session"
)

// runAgents executes the Router's agent selection either as a sequential
// pipeline (each agent sees the prior one's output as UpstreamOutput) or as
// a bounded parallel fan-out (SPEC_FULL.md §4.4/§5), depending on
// decision.MultiAgent. It returns an error only for an infrastructure
// failure from agent.Runtime.Run — a failed agent result is not an error,
// it is folded into the returned slice for the aggregator to weigh.
func (d *Dispatcher) runAgents(ctx context.Context, req Request, execID string, cat *config.CategoryConfig, decision router.Decision, agents []string, snapshot *session.View) ([]aggregator.AgentResult, tokenTotals, error) {
	seq := new(int64)
	if decision.MultiAgent {
		return d.runParallel(ctx, req, execID, cat, decision, agents, snapshot, seq)
	}
	return d.runSequential(ctx, req, execID, cat, decision, agents, snapshot, seq)
}

func (d *Dispatcher) runSequential(ctx context.Context, req Request, execID string, cat *config.CategoryConfig, decision router.Decision, agents []string, snapshot *session.View, seq *int64) ([]aggregator.AgentResult, tokenTotals, error) {
	var results []aggregator.AgentResult
	var usage tokenTotals
	var upstream string

	for _, name := range agents {
		start := time.Now()
		res, err := d.runtime.Run(ctx, &agent.Request{
			TenantID: req.TenantID, AgentName: name, CategoryConfig: cat,
			SelectedSkills: decision.Skills, Utterance: req.Utterance,
			UpstreamOutput: upstream, Snapshot: snapshot,
		})
		if err != nil {
			return results, usage, fmt.Errorf("dispatcher: agent %s: %w", name, err)
		}

		d.auditAgent(ctx, req.TenantID, execID, name, res, time.Since(start), seq)
		usage.input += res.Usage.InputTokens
		usage.output += res.Usage.OutputTokens
		results = append(results, res.AgentResult)

		if res.AgentResult.Outcome == aggregator.AgentFailed {
			break // a failed stage in a sequential chain has nothing to feed forward
		}
		upstream = res.AgentResult.Text
	}
	return results, usage, nil
}

func (d *Dispatcher) runParallel(ctx context.Context, req Request, execID string, cat *config.CategoryConfig, decision router.Decision, agents []string, snapshot *session.View, seq *int64) ([]aggregator.AgentResult, tokenTotals, error) {
	if len(agents) > maxParallelAgents {
		agents = agents[:maxParallelAgents]
	}

	outcomes := make([]agentOutcome, len(agents))
	errs := make([]error, len(agents))

	var wg sync.WaitGroup
	for i, name := range agents {
		wg.Add(1)
		go func(i int, name string) {
			defer wg.Done()
			start := time.Now()
			res, err := d.runtime.Run(ctx, &agent.Request{
				TenantID: req.TenantID, AgentName: name, CategoryConfig: cat,
				SelectedSkills: decision.Skills, Utterance: req.Utterance,
				UpstreamOutput: "", Snapshot: snapshot,
			})
			if err != nil {
				errs[i] = fmt.Errorf("dispatcher: agent %s: %w", name, err)
				return
			}
			d.auditAgent(ctx, req.TenantID, execID, name, res, time.Since(start), seq)
			outcomes[i] = agentOutcome{index: i, result: res.AgentResult, usage: struct{ input, output int }{res.Usage.InputTokens, res.Usage.OutputTokens}}
		}(i, name)
	}
	wg.Wait()

	var results []aggregator.AgentResult
	var usage tokenTotals
	for i, err := range errs {
		if err != nil {
			return results, usage, err
		}
		results = append(results, outcomes[i].result)
		usage.input += outcomes[i].usage.input
		usage.output += outcomes[i].usage.output
	}
	return results, usage, nil
}

// auditAgent appends the stage-end audit row for one agent's contribution,
// with the agent's output text run through the masking service first —
// models.AuditLogEntry's Content field is documented to hold masked content.
func (d *Dispatcher) auditAgent(ctx context.Context, tenantID, execID, agentName string, res *agent.Result, duration time.Duration, seq *int64) {
	content := res.AgentResult.Text
	if d.masker != nil {
		content = d.masker.Mask(content)
	}
	entry := models.AuditLogEntry{
		TenantID: tenantID, ExecutionID: execID, AgentName: agentName,
		Seq:        int(atomic.AddInt64(seq, 1)),
		EventType:  models.AuditStageEnd,
		Content:    content,
		DurationMS: duration.Milliseconds(),
		CreatedAt:  time.Now(),
	}
	if res.AgentResult.Outcome == aggregator.AgentFailed && res.AgentResult.Err != nil {
		entry.ErrorMessage = res.AgentResult.Err.Error()
	}
	if err := d.store.AppendAuditEntry(ctx, entry); err != nil {
		slog.Warn("dispatcher: append audit entry failed", "execution_id", execID, "agent", agentName, "error", err)
	}
}
