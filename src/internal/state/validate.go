package state

import (
	stderrors "errors"
	"fmt"
	"net/netip"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/miekg/dns"

	"github.com/nmstate/nmstate-go/src/internal/errors"
)

// ValidationError represents a single validation error with context
type ValidationError struct {
	ItemName  string // interface name, or "routes"/"route-rules"/"dns-resolver"
	FieldPath string // Dot-notation field path (e.g., "ipv4.address.0.ip")
	Message   string // Human-readable error message
}

// ValidationErrors is a collection of validation errors
type ValidationErrors []ValidationError

// Error implements the error interface
func (ve ValidationErrors) Error() string {
	if len(ve) == 0 {
		return "no validation errors"
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("validation failed with %d error(s):\n", len(ve)))
	for i, err := range ve {
		if err.ItemName != "" {
			sb.WriteString(fmt.Sprintf("  %d. [%s] %s: %s\n", i+1, err.ItemName, err.FieldPath, err.Message))
		} else {
			sb.WriteString(fmt.Sprintf("  %d. %s: %s\n", i+1, err.FieldPath, err.Message))
		}
	}
	return sb.String()
}

var validate *validator.Validate

func init() {
	validate = validator.New()

	if err := validate.RegisterValidation("ifname", validateIfaceName); err != nil {
		panic(err)
	}

	// Report field names as they appear in the document
	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
}

// Custom validator: kernel interface name
func validateIfaceName(fl validator.FieldLevel) bool {
	return IsValidIfaceName(fl.Field().String())
}

// IsValidIfaceName checks the kernel rules: 1-15 bytes, no '/', no
// whitespace, not "." or "..".
func IsValidIfaceName(name string) bool {
	if name == "" || len(name) > 15 || name == "." || name == ".." {
		return false
	}
	return !strings.ContainsAny(name, "/ \t\n:")
}

// getValidationMessage returns a human-readable message for a validation error
func getValidationMessage(e validator.FieldError) string {
	switch e.Tag() {
	case "required":
		return "field is required"
	case "min":
		return fmt.Sprintf("must be >= %s", e.Param())
	case "max":
		return fmt.Sprintf("must be <= %s", e.Param())
	case "oneof":
		return fmt.Sprintf("must be one of: %s", e.Param())
	case "ip":
		return "must be a valid IP address"
	case "mac":
		return "must be a valid MAC address"
	case "ifname":
		return "must be 1-15 characters without '/', ':' or whitespace"
	default:
		return fmt.Sprintf("validation failed: %s", e.Tag())
	}
}

// Validate checks the state and returns all problems at once, wrapped in an
// InvalidArgument error.
func (ns *NetworkState) Validate() error {
	var validationErrors ValidationErrors

	validationErrors = append(validationErrors, ns.validateInterfaces()...)
	validationErrors = append(validationErrors, ns.validateRoutes()...)
	validationErrors = append(validationErrors, ns.validateRules()...)
	validationErrors = append(validationErrors, ns.validateDNS()...)

	if len(validationErrors) > 0 {
		return errors.NewInvalidArgument("invalid network state", validationErrors)
	}
	return nil
}

func (ns *NetworkState) validateInterfaces() ValidationErrors {
	var validationErrors ValidationErrors

	seenKernel := make(map[string]bool)
	seenUserspace := make(map[string]bool)
	portOwner := make(map[string]string)

	for i, iface := range ns.Interfaces {
		itemName := iface.Name
		if itemName == "" {
			itemName = fmt.Sprintf("interfaces[%d]", i)
		}

		if err := validate.Struct(iface); err != nil {
			validationErrors = append(validationErrors, convertValidatorErrors(err, "", itemName)...)
		}

		seen := seenKernel
		if iface.Type.IsUserspace() {
			seen = seenUserspace
		}
		if seen[iface.Name] {
			validationErrors = append(validationErrors, ValidationError{
				ItemName:  itemName,
				FieldPath: "name",
				Message:   fmt.Sprintf("duplicate interface name: %s", iface.Name),
			})
		}
		seen[iface.Name] = true

		for _, port := range iface.Ports() {
			if owner, ok := portOwner[port]; ok && owner != iface.Name {
				validationErrors = append(validationErrors, ValidationError{
					ItemName:  itemName,
					FieldPath: "port",
					Message:   fmt.Sprintf("port %s is already attached to %s", port, owner),
				})
			}
			portOwner[port] = iface.Name
			// OVS internal interfaces share the bridge name.
			if port == iface.Name && iface.Type != TypeOvsBridge {
				validationErrors = append(validationErrors, ValidationError{
					ItemName:  itemName,
					FieldPath: "port",
					Message:   "interface cannot be its own port",
				})
			}
		}

		if iface.IPv4 != nil {
			for j, addr := range iface.IPv4.Addresses {
				if addr.PrefixLength > 32 {
					validationErrors = append(validationErrors, ValidationError{
						ItemName:  itemName,
						FieldPath: fmt.Sprintf("ipv4.address.%d.prefix-length", j),
						Message:   "must be <= 32",
					})
				}
			}
		}

		if iface.Veth != nil && iface.Veth.Peer == iface.Name {
			validationErrors = append(validationErrors, ValidationError{
				ItemName:  itemName,
				FieldPath: "veth.peer",
				Message:   "veth peer cannot be the interface itself",
			})
		}
	}

	// A port naming a controller that lists other ports is contradictory.
	for _, iface := range ns.Interfaces {
		if iface.Controller == nil || *iface.Controller == "" {
			continue
		}
		if owner, ok := portOwner[iface.Name]; ok && owner != *iface.Controller {
			validationErrors = append(validationErrors, ValidationError{
				ItemName:  iface.Name,
				FieldPath: "controller",
				Message:   fmt.Sprintf("controller %s conflicts with port list of %s", *iface.Controller, owner),
			})
		}
	}

	return validationErrors
}

func (ns *NetworkState) validateRoutes() ValidationErrors {
	var validationErrors ValidationErrors
	if ns.Routes == nil {
		return nil
	}
	for i, route := range ns.Routes.Config {
		if route.Destination != "" {
			if _, err := netip.ParsePrefix(route.Destination); err != nil {
				validationErrors = append(validationErrors, ValidationError{
					ItemName:  "routes",
					FieldPath: fmt.Sprintf("config.%d.destination", i),
					Message:   fmt.Sprintf("invalid destination %q: must be a CIDR", route.Destination),
				})
			}
		} else if route.State != stateAbsent {
			validationErrors = append(validationErrors, ValidationError{
				ItemName:  "routes",
				FieldPath: fmt.Sprintf("config.%d.destination", i),
				Message:   "field is required",
			})
		}
		if route.NextHopAddr != "" {
			if _, err := netip.ParseAddr(route.NextHopAddr); err != nil {
				validationErrors = append(validationErrors, ValidationError{
					ItemName:  "routes",
					FieldPath: fmt.Sprintf("config.%d.next-hop-address", i),
					Message:   "must be a valid IP address",
				})
			}
		}
	}
	return validationErrors
}

func (ns *NetworkState) validateRules() ValidationErrors {
	var validationErrors ValidationErrors
	if ns.Rules == nil {
		return nil
	}
	for i, rule := range ns.Rules.Config {
		for _, f := range [][2]string{{"ip-from", rule.IPFrom}, {"ip-to", rule.IPTo}} {
			field, value := f[0], f[1]
			if value == "" {
				continue
			}
			if _, err := parsePrefixOrAddr(value); err != nil {
				validationErrors = append(validationErrors, ValidationError{
					ItemName:  "route-rules",
					FieldPath: fmt.Sprintf("config.%d.%s", i, field),
					Message:   fmt.Sprintf("invalid address %q", value),
				})
			}
		}
		if rule.State != stateAbsent && rule.RouteTable == nil && rule.Action == "" {
			validationErrors = append(validationErrors, ValidationError{
				ItemName:  "route-rules",
				FieldPath: fmt.Sprintf("config.%d", i),
				Message:   "either route-table or action is required",
			})
		}
	}
	return validationErrors
}

func (ns *NetworkState) validateDNS() ValidationErrors {
	var validationErrors ValidationErrors
	if ns.DNS == nil || ns.DNS.Config == nil {
		return nil
	}
	for i, server := range ns.DNS.Config.Server {
		if _, err := netip.ParseAddr(server); err != nil {
			validationErrors = append(validationErrors, ValidationError{
				ItemName:  "dns-resolver",
				FieldPath: fmt.Sprintf("config.server.%d", i),
				Message:   fmt.Sprintf("invalid name server %q", server),
			})
		}
	}
	for i, search := range ns.DNS.Config.Search {
		if _, ok := dns.IsDomainName(search); !ok {
			validationErrors = append(validationErrors, ValidationError{
				ItemName:  "dns-resolver",
				FieldPath: fmt.Sprintf("config.search.%d", i),
				Message:   fmt.Sprintf("invalid search domain %q", search),
			})
		}
	}
	return validationErrors
}

// parsePrefixOrAddr accepts "addr" or "addr/len" and returns a prefix.
func parsePrefixOrAddr(s string) (netip.Prefix, error) {
	if strings.Contains(s, "/") {
		return netip.ParsePrefix(s)
	}
	addr, err := netip.ParseAddr(s)
	if err != nil {
		return netip.Prefix{}, err
	}
	return netip.PrefixFrom(addr, addr.BitLen()), nil
}

// convertValidatorErrors converts go-playground/validator errors to our ValidationError format
func convertValidatorErrors(err error, fieldPrefix string, itemName string) ValidationErrors {
	var validationErrors ValidationErrors

	var validatorErrs validator.ValidationErrors
	if stderrors.As(err, &validatorErrs) {
		for _, e := range validatorErrs {
			// Namespace is "Interface.ipv4.address[0].ip"; drop the struct name.
			fieldPath := e.Namespace()
			if idx := strings.Index(fieldPath, "."); idx >= 0 {
				fieldPath = fieldPath[idx+1:]
			}
			if fieldPrefix != "" {
				fieldPath = fieldPrefix + "." + fieldPath
			}

			validationErrors = append(validationErrors, ValidationError{
				ItemName:  itemName,
				FieldPath: fieldPath,
				Message:   getValidationMessage(e),
			})
		}
	}

	return validationErrors
}
