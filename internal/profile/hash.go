package profile

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// Domain prefixes for content-addressed identity.
// Version suffix enables future algorithm migration.
const (
	DomainProfile = "attest/profile/v1"
	DomainResult  = "attest/result/v1"
)

// hashWithDomain computes SHA-256 with domain separation.
// Format: SHA256(domain + 0x00 + data). The null byte prevents
// domain/data boundary ambiguity.
func hashWithDomain(domain string, data []byte) string {
	h := sha256.New()
	h.Write([]byte(domain))
	h.Write([]byte{0x00})
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil))
}

// Checksum computes the content-addressed checksum of a profile.
// Two profiles with identical semantic content (names, controls, checks,
// expectations) hash identically regardless of YAML formatting.
func Checksum(p *Profile) (string, error) {
	canonical, err := MarshalCanonical(p.toCanonical())
	if err != nil {
		return "", fmt.Errorf("Checksum: failed to marshal: %w", err)
	}
	return hashWithDomain(DomainProfile, canonical), nil
}

// ResultID computes the content-addressed ID of a classified control
// result. Stable across re-renders of the same run.
func ResultID(runToken, controlID, status string, seq int64) string {
	canonical, err := MarshalCanonical(map[string]any{
		"run_token":  runToken,
		"control_id": controlID,
		"status":     status,
		"seq":        seq,
	})
	if err != nil {
		// All four fields are strings or ints; marshal cannot fail.
		panic(fmt.Sprintf("ResultID: %v", err))
	}
	return hashWithDomain(DomainResult, canonical)
}

// toCanonical converts the profile to the map form consumed by
// MarshalCanonical. Empty optional fields are omitted (never null).
func (p *Profile) toCanonical() map[string]any {
	obj := map[string]any{
		"name":    p.Name,
		"version": p.Version,
	}
	putIfSet(obj, "title", p.Title)
	putIfSet(obj, "maintainer", p.Maintainer)
	putIfSet(obj, "summary", p.Summary)

	if len(p.Supports) > 0 {
		supports := make([]any, len(p.Supports))
		for i, s := range p.Supports {
			m := map[string]any{}
			putIfSet(m, "os", s.OS)
			putIfSet(m, "family", s.Family)
			putIfSet(m, "release", s.Release)
			supports[i] = m
		}
		obj["supports"] = supports
	}

	if len(p.Inputs) > 0 {
		inputs := make([]any, len(p.Inputs))
		for i, in := range p.Inputs {
			m := map[string]any{"name": in.Name}
			putIfSet(m, "type", in.Type)
			if in.Default != nil {
				m["default"] = in.Default
			}
			if in.Required {
				m["required"] = true
			}
			if in.Sensitive {
				m["sensitive"] = true
			}
			inputs[i] = m
		}
		obj["inputs"] = inputs
	}

	controls := make([]any, len(p.Controls))
	for i := range p.Controls {
		controls[i] = p.Controls[i].toCanonical()
	}
	obj["controls"] = controls

	return obj
}

func (c *Control) toCanonical() map[string]any {
	obj := map[string]any{
		"id":     c.ID,
		"title":  c.Title,
		"impact": c.Impact,
	}
	putIfSet(obj, "desc", c.Desc)

	if len(c.ImpactRules) > 0 {
		rules := make([]any, len(c.ImpactRules))
		for i, r := range c.ImpactRules {
			rules[i] = map[string]any{
				"when":   r.When.toCanonical(),
				"impact": r.Impact,
			}
		}
		obj["impact_rules"] = rules
	}

	if len(c.Tags) > 0 {
		tags := make(map[string]any, len(c.Tags))
		for k, v := range c.Tags {
			tags[k] = v
		}
		obj["tags"] = tags
	}

	if len(c.Refs) > 0 {
		refs := make([]any, len(c.Refs))
		for i, r := range c.Refs {
			m := map[string]any{"ref": r.Ref}
			putIfSet(m, "url", r.URL)
			refs[i] = m
		}
		obj["refs"] = refs
	}

	if c.OnlyIf != nil {
		obj["only_if"] = c.OnlyIf.toCanonical()
	}

	checks := make([]any, len(c.Checks))
	for i, ch := range c.Checks {
		expect := make([]any, len(ch.Expect))
		for j, e := range ch.Expect {
			m := map[string]any{
				"property": e.Property,
				"op":       e.Op,
			}
			if e.Value != nil {
				m["value"] = e.Value
			}
			if e.Sensitive {
				m["sensitive"] = true
			}
			expect[j] = m
		}
		checks[i] = map[string]any{
			"resource": ch.Resource,
			"subject":  ch.Subject,
			"expect":   expect,
		}
	}
	obj["checks"] = checks

	return obj
}

func (c *Condition) toCanonical() map[string]any {
	obj := map[string]any{
		"fact": c.Fact,
		"op":   c.Op,
	}
	if c.Value != nil {
		obj["value"] = c.Value
	}
	putIfSet(obj, "reason", c.Reason)
	return obj
}

func putIfSet(obj map[string]any, key, val string) {
	if val != "" {
		obj[key] = val
	}
}
