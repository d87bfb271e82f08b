package haasctl

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"slices"

	"github.com/edvin/haas/internal/model"
)

// ActionOptions selects the instances an action runs on.
type ActionOptions struct {
	Action model.ActionKind
	Herd   string
	// Hosts narrows the herd to these hostnames. Empty means every instance.
	Hosts []string
	// Confirm applies a promote or demote proposal without asking.
	Confirm bool
}

// RunAction resolves the selection and runs the action, printing the
// proposal and report to out. Promote and demote are only confirmed when
// opts.Confirm is set; otherwise the proposal is printed and nothing changes.
func RunAction(client *Client, opts ActionOptions, out io.Writer) (*model.ActionReport, error) {
	herdID, err := client.FindHerdByName(opts.Herd)
	if err != nil {
		return nil, err
	}
	instances, err := client.HerdInstances(herdID)
	if err != nil {
		return nil, fmt.Errorf("list instances of %s: %w", opts.Herd, err)
	}

	ids, err := selectInstances(instances, opts.Hosts)
	if err != nil {
		return nil, fmt.Errorf("herd %s: %w", opts.Herd, err)
	}

	path := "/instances/actions/" + string(opts.Action)

	if opts.Action.IsTopology() {
		resp, err := client.Post(path, map[string]any{"instance_ids": ids})
		if err != nil {
			return nil, err
		}
		var proposal model.Proposal
		if err := json.Unmarshal(resp.Body, &proposal); err != nil {
			return nil, fmt.Errorf("parse proposal: %w", err)
		}
		printProposal(out, &proposal)
		if resp.StatusCode == http.StatusUnprocessableEntity {
			return nil, fmt.Errorf("nothing to %s", opts.Action)
		}
		if !opts.Confirm {
			fmt.Fprintln(out, "Run again with -yes to apply.")
			return nil, nil
		}
		ids = proposal.CandidateIDs()
	}

	body := map[string]any{"instance_ids": ids}
	if opts.Action.IsTopology() {
		body["confirmed"] = true
	}
	resp, err := client.Post(path, body)
	if err != nil {
		return nil, err
	}
	var report model.ActionReport
	if err := json.Unmarshal(resp.Body, &report); err != nil {
		return nil, fmt.Errorf("parse report: %w", err)
	}
	printReport(out, &report)
	return &report, nil
}

func selectInstances(instances []model.Instance, hosts []string) ([]string, error) {
	var ids []string
	seen := map[string]bool{}
	for _, inst := range instances {
		if len(hosts) > 0 && !slices.Contains(hosts, inst.Hostname) {
			continue
		}
		ids = append(ids, inst.ID)
		seen[inst.Hostname] = true
	}
	for _, h := range hosts {
		if !seen[h] {
			return nil, fmt.Errorf("no instance on %s", h)
		}
	}
	if len(ids) == 0 {
		return nil, fmt.Errorf("no instances")
	}
	return ids, nil
}

func printProposal(out io.Writer, p *model.Proposal) {
	for _, w := range p.Warnings {
		fmt.Fprintf(out, "  ! %s\n", w)
	}
	if len(p.Candidates) == 0 {
		return
	}
	fmt.Fprintf(out, "Will %s:\n", p.Action)
	for _, c := range p.Candidates {
		fmt.Fprintf(out, "  - %s\n", c.Label())
	}
}

func printReport(out io.Writer, r *model.ActionReport) {
	for _, o := range r.Outcomes {
		fmt.Fprintf(out, "  [%s] %s\n", o.Status, o.Message)
	}
	fmt.Fprintf(out, "%s: %d succeeded, %d skipped, %d failed\n", r.Action, r.Succeeded, r.Skipped, r.Failed)
}
