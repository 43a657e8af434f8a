// Copyright 2025 walteh LLC
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

/*
Package status tracks what a batch run did to each file and reports progress.

	        +-----------+
	        |   batch   |
	        +-----+-----+
	              |
	     TrackFile / *Progress
	              |
	        +-----v-----+
	        |  Tracker  |
	        +-----+-----+
	              |
	  +-----------+-----------+
	  |                       |
	+-v---------+      +------v------+
	| Formatter |      |   zerolog   |
	|  (emoji)  |      |  (context)  |
	+-----------+      +-------------+

🎯 Purpose:
- Records the last Outcome per path (marked, skipped, overlaid, swapped ...)
- Reports StartOperation / UpdateProgress / FinishOperation
- Keeps message wording in one FileFormatter

🔄 Flow:
1. batch.Run calls StartOperation with the number of copies
2. Each injected, overlaid or swapped file is passed to TrackFile
3. UpdateProgress after every copy, FinishOperation at the end
4. Callers read Counts or ListFiles for a summary

🤝 Interfaces:
- Reporter: what batch depends on
- FileFormatter: message wording

🔍 Example:

	tracker := status.New(zerolog.Ctx(ctx))
	tracker.StartOperation(ctx, 3)
	tracker.TrackFile(ctx, status.FileInfo{Path: p, Outcome: status.OutcomeMarked})
	tracker.FinishOperation(ctx)
*/
package status
