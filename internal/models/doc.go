// package models defines the data model for vibe classification runs
package models
