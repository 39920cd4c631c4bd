// Package pgstore implements the tree's backing store on PostgreSQL.
//
// Node records live in contfrac_nodes keyed by an exact NUMERIC projection
// of the label, so hierarchical queries are NUMERIC range scans. Content is
// held in PostgreSQL large objects; a content reference is the object's
// OID in decimal. Records and large objects share one transaction.
package pgstore
