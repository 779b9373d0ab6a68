package build

import "github.com/conneroisu/pages/internal/task"

// Workflow names exposed on the command line.
const (
	WorkflowClean   = "clean"
	WorkflowBuild   = "build"
	WorkflowDevelop = "develop"
)

// Compile runs the three staging stages together.
func (p *Pipeline) Compile() task.Task {
	return task.Named("compile", task.Parallel(p.Style(), p.Script(), p.Page()))
}

// Build cleans, then produces the distribution directory. The reference
// resolver only starts once every staging stage has finished; images, fonts
// and public files are produced alongside.
func (p *Pipeline) Build() task.Task {
	return task.Named(WorkflowBuild, task.Series(
		p.Clean(),
		task.Parallel(
			task.Series(p.Compile(), p.Useref()),
			p.Image(),
			p.Font(),
			p.Extra(),
		),
	))
}

// Develop cleans, compiles the staging directory and then runs serve.
func (p *Pipeline) Develop(serve task.Task) task.Task {
	return task.Named(WorkflowDevelop, task.Series(p.Clean(), p.Compile(), serve))
}

// Workflows returns the public workflows by name.
func Workflows(p *Pipeline, serve task.Task) map[string]task.Task {
	return map[string]task.Task{
		WorkflowClean:   p.Clean(),
		WorkflowBuild:   p.Build(),
		WorkflowDevelop: p.Develop(serve),
	}
}
