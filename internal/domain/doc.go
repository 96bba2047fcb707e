// Package domain defines the core business entities of the repetition
// scheduling engine: users, study materials, schedule entries and
// repetition results. Entities are plain structs with constructor
// validation; all scheduling transitions live in the ebbinghaus package.
package domain
