package app

import (
	"strings"

	"github.com/urfave/cli/v2"

	"github.com/ayoisaiah/workstate/internal/config"
)

func addTaskAction(ctx *cli.Context, e *env) error {
	name := strings.Join(ctx.Args().Slice(), " ")

	t, err := e.catalog.AddTask(
		ctx.Context,
		e.user(),
		name,
		ctx.String("project"),
		ctx.Float64("rate"),
		ctx.String("currency"),
	)
	if err != nil {
		return err
	}

	success().Printfln("Added task %q with id %s", t.Name, t.ID)

	return nil
}

func listTasksAction(ctx *cli.Context, e *env) error {
	list, err := e.catalog.List(ctx.Context, e.user())
	if err != nil {
		return err
	}

	if ctx.Bool("json") {
		return printJSON(list)
	}

	if len(list) == 0 {
		info().Println(noTasksMsg)
		return nil
	}

	printTasksTable(config.Stdout, list)

	return nil
}

func addProjectAction(ctx *cli.Context, e *env) error {
	name := strings.Join(ctx.Args().Slice(), " ")

	p, err := e.catalog.AddProject(
		ctx.Context,
		e.user(),
		name,
		ctx.Float64("rate"),
		ctx.String("currency"),
	)
	if err != nil {
		return err
	}

	success().Printfln("Added project %q with id %s", p.Name, p.ID)

	return nil
}
