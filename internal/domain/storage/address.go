package storage

import "strings"

// Namespaces for deterministic record addressing. Every entity lives at an
// address derived purely from its namespace and stable identifiers, so each
// identifier tuple maps to at most one live record and lookups need no
// secondary index.
const (
	NamespaceRegistry     = "registry"
	NamespacePlan         = "plan"
	NamespaceIntent       = "intent"
	NamespaceSubscription = "subscription"
	NamespacePayment      = "payment"
)

// idEscaper keeps the identifier-to-address encoding injective. A separator
// inside an identifier is escaped, so ("a", "b:c") and ("a:b", "c") derive
// distinct addresses and a prefix scan on one identifier never crosses into
// another tuple.
var idEscaper = strings.NewReplacer(`\`, `\\`, ":", `\:`)

// Address derives the composite key for a record from its namespace and
// identifier tuple. The same inputs always yield the same address, and
// distinct tuples never share one.
func Address(namespace string, ids ...string) string {
	var b strings.Builder
	b.WriteString(namespace)
	for _, id := range ids {
		b.WriteByte(':')
		b.WriteString(idEscaper.Replace(id))
	}
	return b.String()
}

// RegistryAddress is the fixed address of the singleton registry record.
func RegistryAddress() string { return Address(NamespaceRegistry) }

func PlanAddress(planID string) string { return Address(NamespacePlan, planID) }

func IntentAddress(intentID string) string { return Address(NamespaceIntent, intentID) }

// SubscriptionAddress derives from the owning user plus the per-user
// subscription ID.
func SubscriptionAddress(user, subscriptionID string) string {
	return Address(NamespaceSubscription, user, subscriptionID)
}

// PaymentAddress includes the payment timestamp (nanoseconds, as formatted
// by the caller) to keep the append-only history collision-free.
func PaymentAddress(payer, subscriptionRef, timestamp string) string {
	return Address(NamespacePayment, payer, subscriptionRef, timestamp)
}
