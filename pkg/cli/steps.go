package cli

import (
	"fmt"

	"github.com/urfave/cli/v2"

	"github.com/SH1NK10KU/shin-macaca/pkg/executor"
	"github.com/SH1NK10KU/shin-macaca/pkg/pagemodel"
	"github.com/SH1NK10KU/shin-macaca/pkg/tour"
)

var stepsCommand = &cli.Command{
	Name:  "steps",
	Usage: "List the cases and steps of the suite without running them",
	Flags: []cli.Flag{
		&cli.StringFlag{
			Name:  "tour",
			Usage: "YAML file overriding the tour dialogs and font",
		},
	},
	Action: listSteps,
}

func listSteps(c *cli.Context) error {
	t := pagemodel.DefaultTour()
	if path := c.String("tour"); path != "" {
		var err error
		if t, err = pagemodel.LoadTour(path); err != nil {
			return err
		}
	}

	cases := tour.Suite(pagemodel.New(""), t, pagemodel.DefaultCredentials())
	for i, plan := range executor.Plans(cases) {
		fmt.Fprintf(c.App.Writer, "%s[%d]%s %s\n", color(colorCyan), i+1, color(colorReset), plan.Name)
		for j, step := range plan.Steps {
			fmt.Fprintf(c.App.Writer, "    %2d. %s\n", j+1, step)
		}
	}
	return nil
}
