// Package jobs compiles logical pipeline definitions into scheduler-specific
// artifact stubs. Steps form a DAG; compilation validates the graph and
// renders steps in deterministic topological order so the same job always
// yields the same artifact bytes.
package jobs

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/ozmeta-labs/ozmeta/internal/dag"
	"github.com/ozmeta-labs/ozmeta/internal/snapshot"
)

// Supported scheduler families.
const (
	SchedulerAirflow    = "airflow"
	SchedulerCron       = "cron"
	SchedulerDatabricks = "databricks"
)

// Compiled is the result of compiling one job for one scheduler.
type Compiled struct {
	JobCode   string
	Scheduler string
	// Filename is the suggested relative artifact name.
	Filename string
	Content  string
	// StepOrder is the deterministic execution order used during rendering.
	StepOrder []string
}

// Schedulers lists supported scheduler names, sorted.
func Schedulers() []string {
	s := []string{SchedulerAirflow, SchedulerCron, SchedulerDatabricks}
	sort.Strings(s)
	return s
}

// Compile renders one job for one scheduler family.
func Compile(job snapshot.Job, scheduler string) (*Compiled, error) {
	order, err := stepOrder(job)
	if err != nil {
		return nil, fmt.Errorf("job %s: %w", job.Code, err)
	}

	steps := make(map[string]snapshot.JobStep, len(job.Steps))
	for _, s := range job.Steps {
		steps[s.Code] = s
	}

	var filename, content string
	switch scheduler {
	case SchedulerAirflow:
		filename = fmt.Sprintf("jobs/%s.airflow.py", job.Code)
		content = renderAirflow(job, order, steps)
	case SchedulerCron:
		filename = fmt.Sprintf("jobs/%s.cron", job.Code)
		content = renderCron(job, order, steps)
	case SchedulerDatabricks:
		filename = fmt.Sprintf("jobs/%s.databricks.json", job.Code)
		content, err = renderDatabricks(job, order, steps)
		if err != nil {
			return nil, fmt.Errorf("job %s: %w", job.Code, err)
		}
	default:
		return nil, fmt.Errorf("job %s: unknown scheduler %q (supported: %s)",
			job.Code, scheduler, strings.Join(Schedulers(), ", "))
	}

	return &Compiled{
		JobCode:   job.Code,
		Scheduler: scheduler,
		Filename:  filename,
		Content:   content,
		StepOrder: order,
	}, nil
}

// stepOrder builds the step DAG and returns a deterministic topological
// order. A dependency cycle is a compilation error for the job.
func stepOrder(job snapshot.Job) ([]string, error) {
	g := dag.New()
	for _, s := range job.Steps {
		g.AddNode(s.Code)
	}
	for _, s := range job.Steps {
		for _, dep := range s.DependsOn {
			if err := g.AddEdge(dep, s.Code); err != nil {
				return nil, err
			}
		}
	}
	return g.TopologicalSort()
}

func renderAirflow(job snapshot.Job, order []string, steps map[string]snapshot.JobStep) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# Generated pipeline: %s\n", job.Code)
	b.WriteString("from airflow import DAG\n")
	b.WriteString("from airflow.operators.bash import BashOperator\n\n")
	schedule := job.Schedule
	if schedule == "" {
		schedule = "None"
	} else {
		schedule = fmt.Sprintf("%q", schedule)
	}
	fmt.Fprintf(&b, "with DAG(dag_id=%q, schedule=%s, catchup=False) as dag:\n", job.Code, schedule)
	for _, code := range order {
		s := steps[code]
		fmt.Fprintf(&b, "    %s = BashOperator(task_id=%q, bash_command=%q)\n",
			taskVar(code), code, stepCommand(s))
	}
	b.WriteString("\n")
	for _, code := range order {
		s := steps[code]
		deps := append([]string(nil), s.DependsOn...)
		sort.Strings(deps)
		for _, dep := range deps {
			fmt.Fprintf(&b, "    %s >> %s\n", taskVar(dep), taskVar(code))
		}
	}
	return b.String()
}

func renderCron(job snapshot.Job, order []string, steps map[string]snapshot.JobStep) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# Generated pipeline: %s\n", job.Code)
	schedule := job.Schedule
	if schedule == "" {
		schedule = "0 2 * * *"
	}
	// Cron has no dependency graph; steps chain with && in topological order.
	cmds := make([]string, 0, len(order))
	for _, code := range order {
		cmds = append(cmds, stepCommand(steps[code]))
	}
	fmt.Fprintf(&b, "%s %s\n", schedule, strings.Join(cmds, " && "))
	return b.String()
}

// databricksJob is the JSON shape of a Databricks Jobs API 2.1 definition.
type databricksJob struct {
	Name  string           `json:"name"`
	Tasks []databricksTask `json:"tasks"`
}

type databricksTask struct {
	TaskKey   string           `json:"task_key"`
	DependsOn []databricksDep  `json:"depends_on,omitempty"`
	SQLTask   *databricksQuery `json:"sql_task,omitempty"`
}

type databricksDep struct {
	TaskKey string `json:"task_key"`
}

type databricksQuery struct {
	Query string `json:"query"`
}

func renderDatabricks(job snapshot.Job, order []string, steps map[string]snapshot.JobStep) (string, error) {
	spec := databricksJob{Name: job.Code}
	for _, code := range order {
		s := steps[code]
		task := databricksTask{TaskKey: code}
		deps := append([]string(nil), s.DependsOn...)
		sort.Strings(deps)
		for _, dep := range deps {
			task.DependsOn = append(task.DependsOn, databricksDep{TaskKey: dep})
		}
		if s.SQL != "" {
			task.SQLTask = &databricksQuery{Query: s.SQL}
		}
		spec.Tasks = append(spec.Tasks, task)
	}
	data, err := json.MarshalIndent(spec, "", "  ")
	if err != nil {
		return "", err
	}
	return string(data) + "\n", nil
}

func stepCommand(s snapshot.JobStep) string {
	if s.SQL != "" {
		return fmt.Sprintf("ozmeta-run-sql --step %s", s.Code)
	}
	if s.Action != "" {
		return s.Action
	}
	return "true"
}

func taskVar(code string) string {
	return "t_" + strings.ReplaceAll(strings.ToLower(code), "-", "_")
}
