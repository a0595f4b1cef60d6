// Package blog contains the domain agents of the blog pipeline: Researcher
// gathers sources through a search.Tool, Writer drafts the post with a
// model.Model and Editor scores the draft and decides whether it needs a
// revision.
//
// The agents implement core.Agent. They read a private copy of the run
// state and return a core.Update; wrapping them in an agent.Kernel gives
// them status tracking, timing, error capture and versioning.
//
// Prompts are text/template documents rendered against the run inputs.
// Writer and Editor accept an Instruction to replace the default system
// prompt, either static text or derived from the state at run time.
package blog
