package cli

import (
	"fmt"
	"io"

	"github.com/rodaine/table"

	"github.com/fjglira/mdcr/internal/domain"
	"github.com/fjglira/mdcr/internal/runner"
)

func printSummary(w io.Writer, s *runner.Summary) {
	tbl := table.New("File", "State", "Lines", "Blocks", "Replaced", "Mismatches", "Failures").WithWriter(w)
	for _, f := range s.Files {
		tbl.AddRow(f.Path, f.State, f.Lines, f.Blocks, f.Replacements, f.Mismatches, f.Failures)
	}
	tbl.Print()

	fmt.Fprintf(w, "\n%d file(s): %d updated, %d unchanged, %d check failed, %d command failed, %d errors\n",
		len(s.Files),
		s.Count(domain.Updated),
		s.Count(domain.NoChangeNeeded),
		s.Count(domain.CheckFailed),
		s.Count(domain.CommandFailed),
		s.Count(domain.Errored),
	)
}
