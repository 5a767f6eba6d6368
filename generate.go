package jsonsmith

import (
	"context"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/rickchristie/jsonsmith/schema"
)

// temperatureEscalation is the multiplier applied to the sampling
// temperature on each retry, to shake the model out of degenerate output.
const temperatureEscalation = 1.3

// generateValue emits the key prefix (when key is non-empty) and dispatches
// on the node's declared type. The static validator has already checked the
// tree shape, but the dispatch re-checks the type so that a node the
// validator never descended into still fails cleanly instead of emitting
// garbage.
func (r *run) generateValue(ctx context.Context, node *schema.Node, key string) error {
	if ctx.Err() != nil {
		return nil
	}
	if key != "" {
		r.appendKey(key)
	}

	switch node.Type {
	case schema.TypeNumber:
		v, err := r.generateNumber(ctx)
		if err != nil {
			return err
		}
		r.append(formatNumber(v))

	case schema.TypeBoolean:
		r.append(strconv.FormatBool(r.generateBoolean(ctx)))

	case schema.TypeString:
		r.append(`"`)
		v, err := r.generateString(ctx)
		if err != nil {
			return err
		}
		r.append(v)
		r.append(`"`)

	case schema.TypeArray:
		return r.generateArray(ctx, node.Items)

	case schema.TypeObject:
		return r.generateObject(ctx, node.Properties)

	default:
		return &schema.Error{
			Reason:   fmt.Sprintf("unsupported schema type %q", node.Type),
			Fragment: node.String(),
		}
	}
	return nil
}

// generateNumber acquires one numeric token. Numbers have no safe fallback,
// so exhausting the retry budget is fatal.
func (r *run) generateNumber(ctx context.Context) (float64, error) {
	temperature := r.session.temperature
	for attempt := 0; ; attempt++ {
		response, err := r.nextTokens(
			ctx,
			GenerationSettings{Temperature: temperature},
			numberStop,
			"",
		)
		if err == nil {
			if v, parseErr := strconv.ParseFloat(strings.TrimSpace(response), 64); parseErr == nil {
				return v, nil
			}
		}
		if ctx.Err() != nil {
			return 0, nil
		}
		if attempt >= 3 {
			return 0, fmt.Errorf("%w: no valid number after %d attempts", ErrGeneration, attempt+1)
		}
		temperature *= temperatureEscalation
	}
}

// generateBoolean acquires one boolean token. Booleans always have a safe
// default: after the retry budget it falls back to false rather than failing.
func (r *run) generateBoolean(ctx context.Context) bool {
	temperature := r.session.temperature
	for attempt := 0; ; attempt++ {
		response, err := r.nextTokens(
			ctx,
			GenerationSettings{Temperature: temperature, MaxNewTokens: 6},
			booleanStop,
			"",
		)
		if err == nil {
			switch response {
			case "true", "1":
				return true
			case "false", "0":
				return false
			}
		}
		if ctx.Err() != nil || attempt >= 3 {
			return false
		}
		temperature *= temperatureEscalation
	}
}

// generateString acquires the body of a string value. The caller has already
// emitted the opening quote; the stopping pattern consumes up to an
// unescaped closing quote and returns the body without it. One escalated
// retry, then degrade to the empty string so the buffer still closes with a
// valid (vacuous) value.
func (r *run) generateString(ctx context.Context) (string, error) {
	temperature := r.session.temperature
	for attempt := 0; ; attempt++ {
		response, err := r.nextTokens(
			ctx,
			GenerationSettings{Temperature: temperature},
			stringStop,
			"",
		)
		if err == nil {
			return response, nil
		}
		if ctx.Err() != nil {
			return "", nil
		}
		if attempt < 1 {
			temperature *= temperatureEscalation
			continue
		}
		return "", nil
	}
}

// generateObject emits the object's properties in schema declaration order.
// That order is part of the output contract: it determines the literal bytes
// produced.
func (r *run) generateObject(ctx context.Context, properties []schema.Property) error {
	r.append("{")
	if len(properties) == 0 {
		r.append("}")
		return nil
	}

	r.indent += 4
	for i, p := range properties {
		r.appendNewline()
		if err := r.generateValue(ctx, p.Schema, p.Name); err != nil {
			return err
		}
		if i != len(properties)-1 {
			r.append(",")
		}
	}
	r.appendNewline()
	r.indent -= 4
	r.appendIndent()
	r.append("}")
	return nil
}

// generateArray decides the array's length by using the oracle itself as a
// yes/no oracle, since a black-box model offers no grammar hook to sample
// "," versus "]" directly.
//
// First an emptiness probe peeks at the first two non-whitespace characters
// the model would write; a trailing "]" means it wants an empty array. A
// non-empty array commits to its first element unconditionally, then before
// each further slot probes whether the model would write a comma next. The
// probe prompt strips trailing quote/brace characters from the buffer:
// models tend to tokenize a closing quote together with the following comma,
// and probing against the unstripped buffer would systematically read as
// "no more elements".
func (r *run) generateArray(ctx context.Context, items *schema.Node) error {
	head, err := r.nextTokens(
		ctx,
		GenerationSettings{Temperature: r.session.temperature, MaxNewTokens: 6},
		arrayHeadStop,
		"",
	)
	if err != nil {
		return err
	}
	if ctx.Err() != nil {
		return nil
	}
	if strings.HasSuffix(head, "]") {
		r.append("[]")
		return nil
	}

	r.append("[")
	r.appendNewline()
	r.indent += 4
	r.appendIndent()
	if err := r.generateValue(ctx, items, ""); err != nil {
		return err
	}

	for i := 0; i < r.session.maxArrayLength-1; i++ {
		if ctx.Err() != nil {
			return nil
		}

		probePrompt := strings.TrimRight(r.buildPrompt(), `"}`)
		next, err := r.nextTokens(
			ctx,
			GenerationSettings{Temperature: r.session.temperature, MaxNewTokens: 3},
			nil,
			probePrompt,
		)
		if err != nil {
			return err
		}
		if runes := []rune(next); len(runes) > 3 {
			next = string(runes[:3])
		}
		if !strings.Contains(next, ",") {
			break
		}

		r.append(",")
		r.appendNewline()
		r.appendIndent()
		if err := r.generateValue(ctx, items, ""); err != nil {
			return err
		}
	}

	r.appendNewline()
	r.indent -= 4
	r.appendIndent()
	r.append("]")
	return nil
}

// formatNumber renders a float the way the output contract expects: integral
// values keep a trailing ".0" so the value reads as a number literal with a
// fractional part.
func formatNumber(v float64) string {
	if v == math.Trunc(v) && !math.IsInf(v, 0) && math.Abs(v) < 1e15 {
		return strconv.FormatFloat(v, 'f', 1, 64)
	}
	return strconv.FormatFloat(v, 'g', -1, 64)
}
