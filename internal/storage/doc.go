/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package storage implements CSV document persistence.
// It handles open/create/save of a single CSV file with transactional writes and timestamped backups
// kept in a .csvedit/ folder next to the file. Reads accept a UTF-8 BOM; writes emit plain UTF-8 unless asked otherwise.
// Crash snapshots of the in-memory grid go to .csvedit/crash/ and are never read back automatically.
package storage
