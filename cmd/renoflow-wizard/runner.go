package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"

	"github.com/renoflow/renoflow/pkg/models"
	"github.com/renoflow/renoflow/pkg/registry"
	"github.com/renoflow/renoflow/pkg/wizard"
)

// Runner drives the wizard over a terminal. It doubles as the session's
// notifier and router: toasts go to the terminal and the "route" is printed
// as a resume hint.
type Runner struct {
	in       *bufio.Scanner
	out      io.Writer
	registry *registry.Registry
}

func NewRunner(in io.Reader, out io.Writer, reg *registry.Registry) *Runner {
	return &Runner{
		in:       bufio.NewScanner(in),
		out:      out,
		registry: reg,
	}
}

// Info implements wizard.Notifier.
func (r *Runner) Info(message string) {
	fmt.Fprintln(r.out, "✓ "+message)
}

// Error implements wizard.Notifier.
func (r *Runner) Error(message string) {
	fmt.Fprintln(r.out, "✗ "+message)
}

// SetDraftID implements wizard.Router.
func (r *Runner) SetDraftID(draftID string) {
	fmt.Fprintf(r.out, "  (reprenez ce brouillon avec --draft-id %s)\n", draftID)
}

// Run loops over the module's steps until the draft is finalized or input
// ends. Each step prompts for the schema's fields, then "n" advances (with
// validation), "b" goes back, "q" quits keeping the draft resumable.
func (r *Runner) Run(ctx context.Context, session *wizard.Session, orchestrator *wizard.Orchestrator) error {
	descriptor, err := r.registry.Module(session.ModuleCode())
	if err != nil {
		return err
	}

	fmt.Fprintf(r.out, "%s — %s\n", descriptor.Code, descriptor.Name)

	for {
		step := orchestrator.CurrentStep()

		definition := stepDefinition(descriptor, step)
		if definition == nil {
			return fmt.Errorf("module %s has no step %d", descriptor.Code, step)
		}

		fmt.Fprintf(r.out, "\n[Étape %d/%d] %s\n", step, orchestrator.StepCount(), definition.Label)

		bag := existingBag(session, step)

		if err := r.promptStep(definition, bag); err != nil {
			return err
		}

		if step == 1 {
			if err := r.resolveDuplicate(ctx, session, bag); err != nil {
				return err
			}
		}

		action, err := r.promptAction(orchestrator.AtFinalStep(), step > 1)
		if err != nil {
			return err
		}

		switch action {
		case "q":
			fmt.Fprintln(r.out, "Brouillon conservé.")

			return nil
		case "b":
			if err := orchestrator.Previous(ctx); err != nil {
				r.Error(err.Error())
			}
		case "f":
			folder, err := orchestrator.Finalize(ctx, bag)
			if err != nil {
				r.reportStepError(err)

				continue
			}

			fmt.Fprintf(r.out, "\nDossier %s créé (id %s).\n", folder.Reference, folder.ID)

			return nil
		default:
			if err := orchestrator.Next(ctx, bag); err != nil {
				r.reportStepError(err)
			}
		}
	}
}

// promptStep asks for each schema property in order, keeping any previously
// saved value when the user answers with an empty line.
func (r *Runner) promptStep(definition *models.StepDefinition, bag models.StepBag) error {
	if definition.Schema == nil || len(definition.Schema.Properties) == 0 {
		return nil
	}

	names := make([]string, 0, len(definition.Schema.Properties))
	for name := range definition.Schema.Properties {
		names = append(names, name)
	}

	sort.Strings(names)

	for _, name := range names {
		property := definition.Schema.Properties[name]

		prompt := name
		if property.Description != "" {
			prompt += " (" + property.Description + ")"
		}

		if len(property.Enum) > 0 {
			prompt += " " + enumHint(property.Enum)
		}

		if current, exists := bag[name]; exists {
			prompt += fmt.Sprintf(" [%v]", current)
		}

		fmt.Fprintf(r.out, "  %s: ", prompt)

		if !r.in.Scan() {
			return io.EOF
		}

		answer := strings.TrimSpace(r.in.Text())
		if answer == "" {
			continue
		}

		value, err := convertAnswer(property, answer)
		if err != nil {
			fmt.Fprintf(r.out, "  ! %v\n", err)

			continue
		}

		bag[name] = value
	}

	return nil
}

func (r *Runner) promptAction(atFinal, canGoBack bool) (string, error) {
	choices := []string{"n=suivant"}
	if atFinal {
		choices = []string{"f=finaliser"}
	}

	if canGoBack {
		choices = append(choices, "b=précédent")
	}

	choices = append(choices, "q=quitter")

	fmt.Fprintf(r.out, "  [%s] ", strings.Join(choices, ", "))

	if !r.in.Scan() {
		return "", io.EOF
	}

	answer := strings.ToLower(strings.TrimSpace(r.in.Text()))
	if answer == "" && atFinal {
		return "f", nil
	}

	if answer == "" {
		return "n", nil
	}

	return answer, nil
}

// resolveDuplicate runs the duplicate-draft check after the client selection
// on step 1 and lets the user pick between resuming and starting over.
func (r *Runner) resolveDuplicate(ctx context.Context, session *wizard.Session, bag models.StepBag) error {
	clientID, ok := bag["client_id"].(string)
	if !ok || clientID == "" {
		return nil
	}

	resolution := session.ResolveClientSelection(ctx, clientID)
	if resolution == nil {
		return nil
	}

	fmt.Fprintf(r.out, "  Un brouillon existe déjà pour ce client (étape %d, modifié le %s).\n",
		resolution.Existing.CurrentStep, resolution.Existing.UpdatedAt.Format("02/01/2006"))
	fmt.Fprint(r.out, "  [r=reprendre, n=recommencer] ")

	if !r.in.Scan() {
		return io.EOF
	}

	switch strings.ToLower(strings.TrimSpace(r.in.Text())) {
	case "n":
		_, err := resolution.StartNew(ctx)

		return err
	default:
		return resolution.Resume(ctx)
	}
}

func (r *Runner) reportStepError(err error) {
	var stepErr *wizard.StepValidationError
	if errors.As(err, &stepErr) {
		for _, fieldError := range stepErr.Result.Errors {
			fmt.Fprintf(r.out, "  ! %s\n", fieldError.String())
		}

		if stepErr.Disqualifying() {
			fmt.Fprintln(r.out, "  ! Le dossier n'est pas éligible à ce module.")
		}

		return
	}

	r.Error(err.Error())
}

func stepDefinition(descriptor *models.ModuleDescriptor, step int) *models.StepDefinition {
	for _, definition := range descriptor.Steps {
		if definition.Number == step {
			return definition
		}
	}

	return nil
}

func existingBag(session *wizard.Session, step int) models.StepBag {
	if bag, exists := session.DraftData()[models.StepKey(step)]; exists {
		return bag
	}

	return models.StepBag{}
}

func enumHint(values []any) string {
	hints := make([]string, 0, len(values))
	for _, value := range values {
		hints = append(hints, fmt.Sprintf("%v", value))
	}

	return "{" + strings.Join(hints, "|") + "}"
}

// convertAnswer coerces the typed answer to the property's JSON type so the
// schema validation sees real booleans and numbers, not strings.
func convertAnswer(property *models.Property, answer string) (any, error) {
	switch property.Type {
	case "boolean":
		switch strings.ToLower(answer) {
		case "o", "oui", "y", "yes", "true", "1":
			return true, nil
		case "n", "non", "no", "false", "0":
			return false, nil
		default:
			return nil, fmt.Errorf("réponse oui/non attendue, reçu %q", answer)
		}
	case "number":
		value, err := strconv.ParseFloat(answer, 64)
		if err != nil {
			return nil, fmt.Errorf("nombre attendu, reçu %q", answer)
		}

		return value, nil
	case "integer":
		value, err := strconv.Atoi(answer)
		if err != nil {
			return nil, fmt.Errorf("entier attendu, reçu %q", answer)
		}

		return value, nil
	default:
		return answer, nil
	}
}
